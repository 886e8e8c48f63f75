// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	previewFramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "picam_preview_frames_total",
		Help: "Preview ticks by result",
	}, []string{"result"}) // result=delivered|torn|read_error

	previewTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "picam_preview_tick_seconds",
		Help:    "Time spent reading and delivering one preview frame",
		Buckets: []float64{0.001, 0.005, 0.01, 0.02, 0.04, 0.1, 0.25, 1},
	})

	previewRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "picam_preview_running",
		Help: "Whether the preview loop is currently scheduled (1) or idle (0)",
	})

	previewStreamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "picam_preview_stream_clients",
		Help: "Connected MJPEG stream clients",
	})
)

// ObservePreviewTick records the outcome and duration of one preview tick.
func ObservePreviewTick(result string, d time.Duration) {
	previewFramesTotal.WithLabelValues(result).Inc()
	previewTickDuration.Observe(d.Seconds())
}

// SetPreviewRunning toggles the preview loop gauge.
func SetPreviewRunning(running bool) {
	if running {
		previewRunning.Set(1)
		return
	}
	previewRunning.Set(0)
}

// IncStreamClients and DecStreamClients track MJPEG viewers.
func IncStreamClients() { previewStreamClients.Inc() }

func DecStreamClients() { previewStreamClients.Dec() }
