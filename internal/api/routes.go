// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/picam/internal/api/middleware"
)

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableMetrics:  true,
		EnableLogging:  true,
		TracingService: s.cfg.TracingService,
	})

	if s.health != nil {
		r.Get("/healthz", s.health.ServeHealth)
		r.Get("/readyz", s.health.ServeReady)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(middleware.RateLimit(middleware.RateLimitConfig{
				RequestLimit: s.cfg.RateLimit,
				WindowSize:   time.Minute,
			}))
		}

		r.Get("/status", s.handleStatus)
		r.Get("/status/events", s.handleStatusEvents)

		r.Post("/camera/start", s.handleStartCamera)
		r.Post("/camera/stop", s.handleStopCamera)
		r.Post("/camera/dispose", s.handleDisposeCamera)

		r.Post("/picture", s.handleTakePicture)
		r.Post("/timelapse/start", s.handleStartTimelapse)
		r.Post("/timelapse/stop", s.handleStopTimelapse)
		r.Post("/recording/start", s.handleStartRecording)
		r.Post("/recording/stop", s.handleStopRecording)

		r.Get("/tuning", s.handleGetTuning)
		r.Put("/tuning/resolution", s.handleSetResolution)
		r.Put("/tuning/{param}", s.handleSetParam)

		r.Get("/preview.jpg", s.handlePreviewFrame)
		r.Get("/preview.mjpeg", s.handlePreviewStream)

		r.Get("/captures", s.handleListCaptures)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusNotFound, "not_found", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not allowed here")
	})
	return r
}
