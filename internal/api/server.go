// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api exposes the camera over HTTP under /api/v1.
package api

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ManuGH/picam/internal/device"
	"github.com/ManuGH/picam/internal/health"
	"github.com/ManuGH/picam/internal/log"
)

const (
	defaultOperationTimeout = 60 * time.Second
	defaultPreviewMaxFPS    = 10
	maxBodyBytes            = 4 << 10
)

// Camera is the part of *device.Camera the API drives.
type Camera interface {
	Status() device.Status
	Tuning() device.Tuning
	FPS() int
	OnStatusChange(fn func(device.Status)) (func(), error)
	OnPreviewImage(fn device.FrameFunc) (func(), error)

	StartCamera(cb device.DoneFunc) error
	StopCamera(cb device.DoneFunc) error
	DisposeCamera(cb device.DoneFunc) error
	TakePicture(cb device.FilesFunc) error
	StartTimelapse(interval time.Duration, cb device.DoneFunc) error
	StopTimelapse(cb device.FilesFunc) error
	StartRecording(cb device.DoneFunc) error
	StopRecording(cb device.FilesFunc, boxing device.BoxingFunc) error
	SetParam(p device.Param, v int, cb device.DoneFunc) error
	SetResolution(r device.Resolution, cb device.DoneFunc) error
}

var _ Camera = (*device.Camera)(nil)

// CaptureLister reads the capture journal.
type CaptureLister interface {
	List(ctx context.Context, limit int) ([]device.Capture, error)
}

// Config tunes request handling.
type Config struct {
	// OperationTimeout bounds how long a request waits for a device operation.
	OperationTimeout time.Duration
	// PreviewMaxFPS caps the per-client MJPEG rate.
	PreviewMaxFPS int
	// RateLimit is requests per minute per client IP on /api/v1. 0 disables it.
	RateLimit int
	// TracingService enables HTTP spans when set.
	TracingService string
}

// Server serves the HTTP API.
type Server struct {
	cfg      Config
	camera   Camera
	captures CaptureLister
	health   *health.Manager
	logger   zerolog.Logger
	upgrader websocket.Upgrader
	now      func() time.Time
}

// Option customizes a Server.
type Option func(*Server)

// WithCaptures enables GET /api/v1/captures.
func WithCaptures(c CaptureLister) Option {
	return func(s *Server) { s.captures = c }
}

// WithHealth mounts /healthz and /readyz.
func WithHealth(m *health.Manager) Option {
	return func(s *Server) { s.health = m }
}

// New creates a Server for cam.
func New(cfg Config, cam Camera, opts ...Option) *Server {
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = defaultOperationTimeout
	}
	if cfg.PreviewMaxFPS <= 0 {
		cfg.PreviewMaxFPS = defaultPreviewMaxFPS
	}
	s := &Server{
		cfg:    cfg,
		camera: cam,
		logger: log.WithComponent("api"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
