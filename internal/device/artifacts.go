// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/picam/internal/log"
)

// ArtifactKind classifies a media directory event.
type ArtifactKind int

const (
	ArtifactCreated ArtifactKind = iota + 1
	ArtifactRemoved
	ArtifactRenamed
)

func (k ArtifactKind) String() string {
	switch k {
	case ArtifactCreated:
		return "created"
	case ArtifactRemoved:
		return "removed"
	case ArtifactRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ArtifactEvent names a file relative to the media directory.
type ArtifactEvent struct {
	Kind ArtifactKind
	Name string
}

// ArtifactWatcher reports file events in the media directory until ctx is
// cancelled, then closes the channel.
type ArtifactWatcher interface {
	Artifacts(ctx context.Context) (<-chan ArtifactEvent, error)
}

// DirArtifactWatcher watches a single directory, non-recursively.
type DirArtifactWatcher struct {
	dir    string
	logger zerolog.Logger
}

// NewDirArtifactWatcher returns a watcher for dir.
func NewDirArtifactWatcher(dir string, logger zerolog.Logger) *DirArtifactWatcher {
	return &DirArtifactWatcher{dir: filepath.Clean(dir), logger: logger}
}

// Artifacts starts watching and returns the event channel.
func (w *DirArtifactWatcher) Artifacts(ctx context.Context) (<-chan ArtifactEvent, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create media watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch media directory %s: %w", w.dir, err)
	}

	out := make(chan ArtifactEvent, 64)
	go w.watchLoop(ctx, watcher, out)
	return out, nil
}

func (w *DirArtifactWatcher) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- ArtifactEvent) {
	defer close(out)
	defer func() { _ = watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			ev, ok := w.translate(event)
			if !ok {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).
				Str(xglog.FieldEvent, "device.media_watch_error").
				Str(xglog.FieldPath, w.dir).
				Msg("media watcher error")
		}
	}
}

func (w *DirArtifactWatcher) translate(event fsnotify.Event) (ArtifactEvent, bool) {
	name, err := filepath.Rel(w.dir, event.Name)
	if err != nil {
		name = filepath.Base(event.Name)
	}
	switch {
	case event.Has(fsnotify.Create):
		return ArtifactEvent{Kind: ArtifactCreated, Name: name}, true
	case event.Has(fsnotify.Rename):
		return ArtifactEvent{Kind: ArtifactRenamed, Name: name}, true
	case event.Has(fsnotify.Remove):
		return ArtifactEvent{Kind: ArtifactRemoved, Name: name}, true
	default:
		return ArtifactEvent{}, false
	}
}
