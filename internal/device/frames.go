// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import (
	"bytes"
	"fmt"
	"os"
)

var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

// FrameSource yields the most recent preview frame.
type FrameSource interface {
	ReadFrame() ([]byte, error)
}

// FileFrameSource reads the preview JPEG the camera keeps rewriting.
type FileFrameSource struct {
	Path string
}

// ReadFrame reads the whole file and rejects frames caught mid-write.
func (s FileFrameSource) ReadFrame() ([]byte, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read preview frame: %w", err)
	}
	if !IsCompleteJPEG(b) {
		return nil, ErrTornFrame
	}
	return b, nil
}

// IsCompleteJPEG reports whether b starts with a JPEG SOI marker and ends with
// an EOI marker.
func IsCompleteJPEG(b []byte) bool {
	return len(b) >= 4 && bytes.HasPrefix(b, jpegSOI) && bytes.HasSuffix(b, jpegEOI)
}
