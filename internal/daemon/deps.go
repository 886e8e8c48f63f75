// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
)

// CameraRunner owns the camera event loop. *device.Camera implements it.
type CameraRunner interface {
	Run(ctx context.Context) error
}

// Deps contains dependencies required by the daemon Manager.
type Deps struct {
	// Logger is the structured logger for the daemon
	Logger zerolog.Logger

	// Camera is run for the lifetime of the manager.
	Camera CameraRunner

	// APIHandler is the HTTP handler for the API server
	APIHandler http.Handler

	// MetricsHandler serves Prometheus metrics on MetricsAddr. Either being
	// empty disables the metrics listener.
	MetricsHandler http.Handler
	MetricsAddr    string
}

// Validate checks if the dependencies are valid.
func (d *Deps) Validate() error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.Camera == nil {
		return ErrMissingCamera
	}
	if d.APIHandler == nil {
		return ErrMissingAPIHandler
	}
	return nil
}
