// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/picam/internal/device"
)

// ParamRequest is the body of PUT /tuning/{param}.
type ParamRequest struct {
	Value *int `json:"value"`
}

var tuningParams = map[string]device.Param{
	string(device.ParamSharpness):  device.ParamSharpness,
	string(device.ParamContrast):   device.ParamContrast,
	string(device.ParamBrightness): device.ParamBrightness,
	string(device.ParamSaturation): device.ParamSaturation,
	string(device.ParamISO):        device.ParamISO,
}

func (s *Server) handleGetTuning(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.camera.Tuning())
}

func (s *Server) handleSetParam(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "param")
	p, ok := tuningParams[name]
	if !ok {
		writeProblem(w, r, http.StatusNotFound, "not_found", "unknown tuning parameter "+name)
		return
	}
	var req ParamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Value == nil {
		writeError(w, r, &device.ValidationError{Field: "value", Reason: "is required"})
		return
	}
	v := *req.Value
	s.tuningHandler(func(cb device.DoneFunc) error { return s.camera.SetParam(p, v, cb) })(w, r)
}

func (s *Server) handleSetResolution(w http.ResponseWriter, r *http.Request) {
	var res device.Resolution
	if err := decodeJSON(w, r, &res); err != nil {
		writeError(w, r, err)
		return
	}
	s.tuningHandler(func(cb device.DoneFunc) error { return s.camera.SetResolution(res, cb) })(w, r)
}

func (s *Server) tuningHandler(op func(device.DoneFunc) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.await(w, r, func(reply func([]string, error)) error {
			return op(done(reply))
		}); ok {
			writeJSON(w, http.StatusOK, s.camera.Tuning())
		}
	}
}
