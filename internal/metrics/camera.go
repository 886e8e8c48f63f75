// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cameraStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "picam_camera_status",
		Help: "Current camera status (1 for the active status, 0 otherwise)",
	}, []string{"status"})

	cameraStatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "picam_camera_status_transitions_total",
		Help: "Observed status transitions by destination status",
	}, []string{"status"})

	cameraCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "picam_camera_commands_total",
		Help: "Commands written to the control pipe by command code and result",
	}, []string{"command", "result"}) // result=ok|error

	cameraCommandDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "picam_camera_command_write_seconds",
		Help:    "Time spent writing a single command to the control pipe",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	cameraOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "picam_camera_operations_total",
		Help: "Camera operations by name and outcome",
	}, []string{"operation", "outcome"}) // outcome=ok|invalid_state|command_failed|noop

	cameraOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "picam_camera_operation_duration_seconds",
		Help:    "Time from issuing an operation until it resolved",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 300},
	}, []string{"operation"})

	cameraArtifactsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "picam_camera_artifacts_total",
		Help: "Media directory creations by ledger decision",
	}, []string{"decision"}) // decision=recorded|excluded|duplicate

	cameraSubscribers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "picam_camera_subscribers",
		Help: "Registered subscriptions by kind",
	}, []string{"kind"}) // kind=status|preview
)

var knownStatuses = []string{
	"halted", "ready", "video", "timelapse", "image", "boxing", "md_ready", "md_video", "md_boxing",
}

var (
	statusMu     sync.Mutex
	activeStatus string
)

// SetCameraStatus marks status as the active one and clears every other known
// status, plus whichever status was active before.
func SetCameraStatus(status string) {
	statusMu.Lock()
	defer statusMu.Unlock()
	for _, s := range knownStatuses {
		if s != status {
			cameraStatus.WithLabelValues(s).Set(0)
		}
	}
	if activeStatus != "" && activeStatus != status {
		cameraStatus.WithLabelValues(activeStatus).Set(0)
	}
	cameraStatus.WithLabelValues(status).Set(1)
	activeStatus = status
	cameraStatusTransitions.WithLabelValues(status).Inc()
}

// ObserveCommand records one control pipe write.
func ObserveCommand(code string, err error, d time.Duration) {
	if code == "" {
		code = "unknown"
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	cameraCommandsTotal.WithLabelValues(code, result).Inc()
	cameraCommandDuration.Observe(d.Seconds())
}

// ObserveOperation records the resolution of a camera operation.
func ObserveOperation(operation, outcome string, d time.Duration) {
	if outcome == "" {
		outcome = "ok"
	}
	cameraOperationsTotal.WithLabelValues(operation, outcome).Inc()
	if outcome == "ok" {
		cameraOperationDuration.WithLabelValues(operation).Observe(d.Seconds())
	}
}

// IncArtifact records what the file ledger did with a creation event.
func IncArtifact(decision string) {
	cameraArtifactsTotal.WithLabelValues(decision).Inc()
}

// SetSubscribers publishes the number of live subscriptions of a kind.
func SetSubscribers(kind string, n int) {
	cameraSubscribers.WithLabelValues(kind).Set(float64(n))
}
