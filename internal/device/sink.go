// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// CommandSink delivers one command line to the camera process.
type CommandSink interface {
	Send(ctx context.Context, command string) error
}

// FIFOSink writes newline-terminated commands to the camera's control pipe.
// The pipe is opened per command without blocking, so a camera process that is
// not reading yields ErrNoReader instead of hanging.
type FIFOSink struct {
	path string
	mu   sync.Mutex
}

// NewFIFOSink returns a sink for the pipe at path.
func NewFIFOSink(path string) *FIFOSink {
	return &FIFOSink{path: path}
}

// Send writes command followed by a newline. Concurrent calls are serialized.
// A reader that stops draining the pipe cannot hold the write past ctx.
func (s *FIFOSink) Send(ctx context.Context, command string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := openFIFO(s.path)
	if err != nil {
		if isNoReader(err) {
			return fmt.Errorf("%w: %s", ErrNoReader, s.path)
		}
		return fmt.Errorf("open command pipe: %w", err)
	}
	defer func() { _ = f.Close() }()

	if dl, ok := ctx.Deadline(); ok {
		if err := f.SetWriteDeadline(dl); err != nil && !errors.Is(err, os.ErrNoDeadline) {
			return fmt.Errorf("arm command pipe deadline: %w", err)
		}
	}
	stop := context.AfterFunc(ctx, func() { _ = f.SetWriteDeadline(time.Now()) })
	defer stop()

	if _, err := f.WriteString(command + "\n"); err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			cause := ctx.Err()
			if cause == nil {
				cause = context.DeadlineExceeded
			}
			return fmt.Errorf("write command pipe: %w", cause)
		}
		return fmt.Errorf("write command pipe: %w", err)
	}
	return nil
}
