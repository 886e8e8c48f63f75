// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ManuGH/picam/internal/device"
	"github.com/ManuGH/picam/internal/log"
)

var (
	// ErrOperationTimeout is returned when a device operation outlives the request budget.
	// The operation itself keeps running on the camera loop.
	ErrOperationTimeout = errors.New("operation did not resolve in time")

	// ErrBadRequest classifies malformed request bodies and parameters.
	ErrBadRequest = errors.New("bad request")

	// ErrNotEnabled is returned for optional features that are switched off.
	ErrNotEnabled = errors.New("feature not enabled")
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// classify maps an error to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, device.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, device.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, device.ErrCommandFailed):
		return http.StatusBadGateway, "command_failed"
	case errors.Is(err, ErrOperationTimeout):
		return http.StatusGatewayTimeout, "operation_timeout"
	case errors.Is(err, device.ErrStopped):
		return http.StatusServiceUnavailable, "camera_stopped"
	case errors.Is(err, ErrNotEnabled):
		return http.StatusNotFound, "not_enabled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, kind := classify(err)
	logger := log.WithComponentFromContext(r.Context(), "api")
	evt := logger.Warn()
	if code >= http.StatusInternalServerError {
		evt = logger.Error()
	}
	evt.Err(err).
		Str(log.FieldEvent, "api.request_failed").
		Str("error_code", kind).
		Int("status", code).
		Msg("request failed")
	writeProblem(w, r, code, kind, err.Error())
}

func writeProblem(w http.ResponseWriter, r *http.Request, code int, kind, detail string) {
	writeJSON(w, code, ErrorResponse{
		Error:     kind,
		Detail:    detail,
		RequestID: log.RequestIDFromContext(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a small strict JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}
