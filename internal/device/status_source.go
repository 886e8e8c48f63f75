// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/picam/internal/log"
)

// StatusSource exposes the camera status indicator.
//
// Changes delivers at-least-once "something may have changed" signals until
// ctx is cancelled, then closes the channel. Signals may be coalesced; the
// consumer re-reads with Read.
type StatusSource interface {
	Read() (string, error)
	Changes(ctx context.Context) (<-chan struct{}, error)
}

// FileStatusSource watches the status file written by the camera process.
// The parent directory is watched because the camera replaces the file.
// A poll ticker backs up the watcher on filesystems without inotify support.
type FileStatusSource struct {
	path         string
	pollInterval time.Duration
	logger       zerolog.Logger
}

// NewFileStatusSource returns a source for path. A zero pollInterval disables
// the fallback poll.
func NewFileStatusSource(path string, pollInterval time.Duration, logger zerolog.Logger) *FileStatusSource {
	return &FileStatusSource{
		path:         filepath.Clean(path),
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Read returns the raw file content.
func (s *FileStatusSource) Read() (string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("read status file: %w", err)
	}
	return string(b), nil
}

// Changes starts watching and returns the signal channel.
func (s *FileStatusSource) Changes(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create status watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch status directory %s: %w", dir, err)
	}

	out := make(chan struct{}, 1)
	go s.watchLoop(ctx, watcher, out)
	return out, nil
}

func (s *FileStatusSource) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- struct{}) {
	defer close(out)
	defer func() { _ = watcher.Close() }()

	var tick <-chan time.Time
	if s.pollInterval > 0 {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				signal(out)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn().Err(err).
				Str(xglog.FieldEvent, "device.status_watch_error").
				Str(xglog.FieldPath, s.path).
				Msg("status watcher error")
		case <-tick:
			signal(out)
		}
	}
}

func signal(out chan<- struct{}) {
	select {
	case out <- struct{}{}:
	default:
	}
}
