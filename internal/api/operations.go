// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ManuGH/picam/internal/device"
	"github.com/ManuGH/picam/internal/log"
)

type result struct {
	files []string
	err   error
}

// await issues an operation and blocks until its callback fires, the request
// budget expires or the client goes away. It writes the error reply itself
// and reports whether the caller should write a success body.
func (s *Server) await(w http.ResponseWriter, r *http.Request, issue func(reply func([]string, error)) error) ([]string, bool) {
	ch := make(chan result, 1)
	reply := func(files []string, err error) {
		select {
		case ch <- result{files: files, err: err}:
		default:
		}
	}
	if err := issue(reply); err != nil {
		writeError(w, r, err)
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.OperationTimeout)
	defer cancel()
	select {
	case res := <-ch:
		if res.err != nil {
			writeError(w, r, res.err)
			return nil, false
		}
		if res.files == nil {
			res.files = []string{}
		}
		return res.files, true
	case <-ctx.Done():
		if r.Context().Err() != nil {
			logger := log.WithComponentFromContext(r.Context(), "api")
			logger.Debug().
				Str(log.FieldEvent, "api.client_gone").
				Msg("client left before the operation resolved")
			return nil, false
		}
		writeError(w, r, ErrOperationTimeout)
		return nil, false
	}
}

func done(reply func([]string, error)) device.DoneFunc {
	return func(err error) { reply(nil, err) }
}

func files(reply func([]string, error)) device.FilesFunc {
	return device.FilesFunc(reply)
}

// StatusResponse reports the device status.
type StatusResponse struct {
	Status device.Status `json:"status"`
}

// FilesResponse lists the media files an operation produced.
type FilesResponse struct {
	Files []string `json:"files"`
}

// RecordingResponse is returned by POST /recording/stop.
type RecordingResponse struct {
	Files          []string `json:"files"`
	BoxingObserved bool     `json:"boxing_observed"`
}

// TimelapseRequest is the body of POST /timelapse/start.
type TimelapseRequest struct {
	Interval string `json:"interval"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: s.camera.Status()})
}

// doneHandler adapts an operation without files into a handler replying with the new status.
func (s *Server) doneHandler(op func(device.DoneFunc) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.await(w, r, func(reply func([]string, error)) error {
			return op(done(reply))
		}); ok {
			writeJSON(w, http.StatusOK, StatusResponse{Status: s.camera.Status()})
		}
	}
}

// filesHandler adapts an operation that resolves with files.
func (s *Server) filesHandler(op func(device.FilesFunc) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if got, ok := s.await(w, r, func(reply func([]string, error)) error {
			return op(files(reply))
		}); ok {
			writeJSON(w, http.StatusOK, FilesResponse{Files: got})
		}
	}
}

func (s *Server) handleStartCamera(w http.ResponseWriter, r *http.Request) {
	s.doneHandler(s.camera.StartCamera)(w, r)
}

func (s *Server) handleStopCamera(w http.ResponseWriter, r *http.Request) {
	s.doneHandler(s.camera.StopCamera)(w, r)
}

func (s *Server) handleDisposeCamera(w http.ResponseWriter, r *http.Request) {
	s.doneHandler(s.camera.DisposeCamera)(w, r)
}

func (s *Server) handleTakePicture(w http.ResponseWriter, r *http.Request) {
	s.filesHandler(s.camera.TakePicture)(w, r)
}

func (s *Server) handleStopTimelapse(w http.ResponseWriter, r *http.Request) {
	s.filesHandler(s.camera.StopTimelapse)(w, r)
}

func (s *Server) handleStartRecording(w http.ResponseWriter, r *http.Request) {
	s.doneHandler(s.camera.StartRecording)(w, r)
}

func (s *Server) handleStartTimelapse(w http.ResponseWriter, r *http.Request) {
	var req TimelapseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	interval, err := time.ParseDuration(req.Interval)
	if err != nil {
		writeError(w, r, &device.ValidationError{Field: "interval", Reason: err.Error()})
		return
	}
	s.doneHandler(func(cb device.DoneFunc) error {
		return s.camera.StartTimelapse(interval, cb)
	})(w, r)
}

func (s *Server) handleStopRecording(w http.ResponseWriter, r *http.Request) {
	var boxed atomic.Bool
	got, ok := s.await(w, r, func(reply func([]string, error)) error {
		return s.camera.StopRecording(files(reply), func() { boxed.Store(true) })
	})
	if ok {
		writeJSON(w, http.StatusOK, RecordingResponse{Files: got, BoxingObserved: boxed.Load()})
	}
}
