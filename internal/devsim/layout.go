// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

// Package devsim emulates the file surface of a RaspiMJPEG camera process:
// a command pipe, a status file, a preview JPEG and a media directory.
package devsim

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Paths locates the simulated camera surface.
type Paths struct {
	FIFO     string
	Status   string
	Preview  string
	MediaDir string
}

// Layout returns the paths the simulator uses below dir.
func Layout(dir string) Paths {
	return Paths{
		FIFO:     filepath.Join(dir, "FIFO"),
		Status:   filepath.Join(dir, "status_mjpeg.txt"),
		Preview:  filepath.Join(dir, "cam.jpg"),
		MediaDir: filepath.Join(dir, "media"),
	}
}

// prepare creates the directory tree and the pipe. An existing pipe is reused.
func (p Paths) prepare() error {
	if err := os.MkdirAll(p.MediaDir, 0o755); err != nil {
		return fmt.Errorf("create media directory: %w", err)
	}
	info, err := os.Stat(p.FIFO)
	switch {
	case err == nil && info.Mode()&os.ModeNamedPipe != 0:
		return nil
	case err == nil:
		return fmt.Errorf("%s exists and is not a pipe", p.FIFO)
	case !os.IsNotExist(err):
		return fmt.Errorf("stat command pipe: %w", err)
	}
	if err := syscall.Mkfifo(p.FIFO, 0o660); err != nil {
		return fmt.Errorf("create command pipe: %w", err)
	}
	return nil
}
