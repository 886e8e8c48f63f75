// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation classifies argument and configuration errors.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState classifies operations attempted in the wrong device status.
	ErrInvalidState = errors.New("invalid device state")

	// ErrCommandFailed classifies failures to deliver a command to the device.
	ErrCommandFailed = errors.New("command failed")

	// ErrStopped is returned when an operation is submitted after Run has returned.
	ErrStopped = errors.New("camera loop stopped")

	// ErrAlreadyRunning is returned by a second concurrent call to Run.
	ErrAlreadyRunning = errors.New("camera loop already running")

	// ErrNoReader means nothing holds the command pipe open for reading.
	ErrNoReader = errors.New("command pipe has no reader")

	// ErrTornFrame marks a preview frame that was caught mid-write.
	ErrTornFrame = errors.New("incomplete preview frame")
)

// ValidationError reports a bad argument or configuration value. It is always
// returned synchronously and never delivered through a callback.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InvalidStateError is delivered to a callback when the device was not in the
// status an operation requires.
type InvalidStateError struct {
	Operation string
	Required  Status
	Actual    Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s requires status %q, device is %q", e.Operation, e.Required, e.Actual)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// CommandError wraps a failed write of Command to the device.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("send %q: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

func (e *CommandError) Is(target error) bool { return target == ErrCommandFailed }

func invalidField(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
