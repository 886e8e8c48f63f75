// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ManuGH/picam/internal/device"
)

// CaptureEntry is the wire form of a journal entry.
type CaptureEntry struct {
	ID         string    `json:"id"`
	Operation  string    `json:"operation"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Files      []string  `json:"files"`
	Error      string    `json:"error,omitempty"`
}

// CapturesResponse is returned by GET /captures.
type CapturesResponse struct {
	Captures []CaptureEntry `json:"captures"`
}

func (s *Server) handleListCaptures(w http.ResponseWriter, r *http.Request) {
	if s.captures == nil {
		writeError(w, r, fmt.Errorf("%w: capture journal is disabled", ErrNotEnabled))
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, r, &device.ValidationError{Field: "limit", Reason: fmt.Sprintf("must be a positive integer, got %q", raw)})
			return
		}
		limit = n
	}

	list, err := s.captures.List(r.Context(), limit)
	if err != nil {
		writeError(w, r, fmt.Errorf("list captures: %w", err))
		return
	}
	resp := CapturesResponse{Captures: make([]CaptureEntry, 0, len(list))}
	for _, c := range list {
		files := c.Files
		if files == nil {
			files = []string{}
		}
		resp.Captures = append(resp.Captures, CaptureEntry{
			ID:         c.ID,
			Operation:  c.Operation,
			StartedAt:  c.StartedAt,
			FinishedAt: c.FinishedAt,
			Files:      files,
			Error:      c.Err,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
