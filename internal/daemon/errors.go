// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import "errors"

var (
	// ErrMissingLogger is returned when logger is not provided
	ErrMissingLogger = errors.New("logger is required")

	// ErrMissingAPIHandler is returned when API handler is not provided
	ErrMissingAPIHandler = errors.New("API handler is required")

	// ErrMissingCamera is returned when no camera loop is provided.
	ErrMissingCamera = errors.New("camera is required")

	// ErrManagerNotStarted is returned when trying to shutdown a manager that hasn't started
	ErrManagerNotStarted = errors.New("manager not started")

	// ErrManagerAlreadyStarted is returned by a second call to Start.
	ErrManagerAlreadyStarted = errors.New("manager already started")

	// ErrCameraStopped is returned when the camera loop exits while the daemon is still serving.
	ErrCameraStopped = errors.New("camera loop exited unexpectedly")
)
