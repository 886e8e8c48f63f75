// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ManuGH/picam/internal/device"
	"github.com/ManuGH/picam/internal/log"
	"github.com/ManuGH/picam/internal/metrics"
)

const (
	mjpegBoundary     = "picamframe"
	firstFrameTimeout = 5 * time.Second
)

// latestFrame keeps only the newest preview frame. Slow readers skip frames
// instead of queueing them.
type latestFrame struct {
	mu     sync.Mutex
	frame  []byte
	notify chan struct{}
}

func newLatestFrame() *latestFrame {
	return &latestFrame{notify: make(chan struct{}, 1)}
}

func (l *latestFrame) put(frame []byte) {
	l.mu.Lock()
	l.frame = frame
	l.mu.Unlock()
	select {
	case l.notify <- struct{}{}:
	default:
	}
}

func (l *latestFrame) take() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	f := l.frame
	l.frame = nil
	return f
}

func (s *Server) handlePreviewFrame(w http.ResponseWriter, r *http.Request) {
	if s.camera.Status() == device.StatusHalted {
		writeError(w, r, &device.InvalidStateError{Operation: "preview", Required: device.StatusReady, Actual: device.StatusHalted})
		return
	}
	latest := newLatestFrame()
	dispose, err := s.camera.OnPreviewImage(latest.put)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer dispose()

	ctx, cancel := context.WithTimeout(r.Context(), firstFrameTimeout)
	defer cancel()
	select {
	case <-latest.notify:
		frame := latest.take()
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", strconv.Itoa(len(frame)))
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(frame)
	case <-ctx.Done():
		if r.Context().Err() == nil {
			writeError(w, r, ErrOperationTimeout)
		}
	}
}

// streamFPS resolves the client's requested rate against the server cap and
// the camera's own preview rate.
func (s *Server) streamFPS(r *http.Request) (int, error) {
	limit := min(s.cfg.PreviewMaxFPS, s.camera.FPS())
	raw := r.URL.Query().Get("fps")
	if raw == "" {
		return limit, nil
	}
	fps, err := strconv.Atoi(raw)
	if err != nil || fps <= 0 {
		return 0, &device.ValidationError{Field: "fps", Reason: fmt.Sprintf("must be a positive integer, got %q", raw)}
	}
	return min(fps, limit), nil
}

func (s *Server) handlePreviewStream(w http.ResponseWriter, r *http.Request) {
	fps, err := s.streamFPS(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	latest := newLatestFrame()
	dispose, err := s.camera.OnPreviewImage(latest.put)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer dispose()

	metrics.IncStreamClients()
	defer metrics.DecStreamClients()

	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().Str(log.FieldEvent, "preview.stream_started").Int(log.FieldFPS, fps).Msg("preview stream started")

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+mjpegBoundary)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	limiter := rate.NewLimiter(rate.Limit(fps), 1)
	ctx := r.Context()
	sent := 0
	for {
		select {
		case <-ctx.Done():
			logger.Info().Str(log.FieldEvent, "preview.stream_ended").Int("frames", sent).Msg("preview stream ended")
			return
		case <-latest.notify:
		}
		if err := limiter.Wait(ctx); err != nil {
			continue
		}
		frame := latest.take()
		if frame == nil {
			continue
		}
		if err := writePart(w, frame); err != nil {
			logger.Debug().Err(err).Str(log.FieldEvent, "preview.stream_write_failed").Msg("client write failed")
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
		sent++
	}
}

func writePart(w http.ResponseWriter, frame []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", mjpegBoundary, len(frame)); err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return err
	}
	_, err := w.Write([]byte("\r\n"))
	return err
}
