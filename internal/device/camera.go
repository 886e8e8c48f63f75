// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package device turns the fire-and-forget surface of a RaspiMJPEG-style
// camera process (command pipe, status file, media directory, preview JPEG)
// into request/response operations.
//
// A Camera serializes everything on one loop goroutine started by Run:
// status transitions, media directory events, command completions, operation
// bodies and preview ticks. Callbacks passed to a Camera always run on that
// goroutine and must not block.
package device

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	xglog "github.com/ManuGH/picam/internal/log"
	"github.com/ManuGH/picam/internal/metrics"
	"github.com/ManuGH/picam/internal/telemetry"
)

const tracerName = "github.com/ManuGH/picam/internal/device"

// DoneFunc receives the outcome of an operation without files.
type DoneFunc func(err error)

// FilesFunc receives the files created by an operation. files is empty, never
// nil, when err is set.
type FilesFunc func(files []string, err error)

// BoxingFunc is notified when a stopped recording enters the boxing phase.
type BoxingFunc func()

// Capture is a finished file-producing operation.
type Capture struct {
	ID         string
	Operation  string
	StartedAt  time.Time
	FinishedAt time.Time
	Files      []string
	Err        string
}

// CaptureRecorder persists Capture entries. It is called off the camera loop.
type CaptureRecorder interface {
	RecordCapture(ctx context.Context, c Capture) error
}

// Deps are the collaborators of a Camera.
type Deps struct {
	Sink      CommandSink
	Status    StatusSource
	Artifacts ArtifactWatcher
	Frames    FrameSource

	// Recorder is optional.
	Recorder CaptureRecorder
	// Clock defaults to the system clock.
	Clock  Clock
	Logger zerolog.Logger
}

// Validate checks that the mandatory collaborators are present.
func (d Deps) Validate() error {
	switch {
	case d.Sink == nil:
		return invalidField("deps.sink", "is required")
	case d.Status == nil:
		return invalidField("deps.status", "is required")
	case d.Artifacts == nil:
		return invalidField("deps.artifacts", "is required")
	case d.Frames == nil:
		return invalidField("deps.frames", "is required")
	}
	return nil
}

// Option customizes Open.
type Option func(*Deps)

// WithRecorder journals every file-producing operation.
func WithRecorder(r CaptureRecorder) Option {
	return func(d *Deps) { d.Recorder = r }
}

// WithClock replaces the clock used by the preview loop.
func WithClock(c Clock) Option {
	return func(d *Deps) { d.Clock = c }
}

// Camera coordinates commands, status transitions and preview frames.
type Camera struct {
	cfg    Config
	deps   Deps
	clock  Clock
	logger zerolog.Logger
	tracer trace.Tracer

	mailbox  *mailbox
	registry *registry
	tracker  *statusTracker
	ledger   *Ledger
	preview  *previewScheduler

	// Loop-owned setter state.
	applied    map[Param]string
	appliedSeq map[Param]uint64
	inflight   map[Param]*inflightSet
	setSeq     uint64
	tuning     atomic.Pointer[Tuning]

	running atomic.Bool
	loopCtx context.Context
	pumps   sync.WaitGroup
	bg      sync.WaitGroup
}

// Open validates cfg, checks that every path exists and wires the file-backed
// adapters.
func Open(cfg Config, logger zerolog.Logger, opts ...Option) (*Camera, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.CheckPaths(); err != nil {
		return nil, err
	}
	deps := Deps{
		Sink:      NewFIFOSink(cfg.FIFOPath),
		Status:    NewFileStatusSource(cfg.StatusPath, cfg.StatusPollInterval, logger),
		Artifacts: NewDirArtifactWatcher(cfg.MediaDir, logger),
		Frames:    FileFrameSource{Path: cfg.PreviewPath},
		Logger:    logger,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return New(cfg, deps)
}

// New builds a Camera from explicit collaborators. Path existence is not
// checked.
func New(cfg Config, deps Deps) (*Camera, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	if deps.Clock == nil {
		deps.Clock = systemClock{}
	}

	logger := deps.Logger.With().Str(xglog.FieldComponent, "device").Logger()
	c := &Camera{
		cfg:        cfg,
		deps:       deps,
		clock:      deps.Clock,
		logger:     logger,
		tracer:     telemetry.Tracer(tracerName),
		mailbox:    newMailbox(),
		registry:   newRegistry(logger),
		ledger:     NewLedger(cfg.TransientSuffixes...),
		applied:    make(map[Param]string),
		appliedSeq: make(map[Param]uint64),
		inflight:   make(map[Param]*inflightSet),
		loopCtx:    context.Background(),
	}
	c.tuning.Store(&Tuning{})
	c.tracker = newStatusTracker(c.registry, logger)
	c.preview = newPreviewScheduler(cfg.FPS, deps.Frames, deps.Clock, c.mailbox.post, c.tracker.Current, logger)
	c.tracker.afterFire = func(_, _ Status) { c.preview.reconcile() }
	return c, nil
}

// Run drives the camera until ctx is cancelled. Operations submitted before
// Run are queued. Run may only be called once.
func (c *Camera) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	if c.mailbox.isClosed() {
		return ErrStopped
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.loopCtx = ctx

	changes, err := c.deps.Status.Changes(ctx)
	if err != nil {
		c.mailbox.close()
		return fmt.Errorf("watch status: %w", err)
	}
	artifacts, err := c.deps.Artifacts.Artifacts(ctx)
	if err != nil {
		cancel()
		for range changes {
		}
		c.mailbox.close()
		return fmt.Errorf("watch media directory: %w", err)
	}

	c.logger.Info().
		Str(xglog.FieldEvent, "device.started").
		Int(xglog.FieldFPS, c.cfg.FPS).
		Msg("camera loop started")

	c.pumps.Add(2)
	go c.pumpStatus(changes)
	go c.pumpArtifacts(artifacts)
	c.readStatus()

	c.loop(ctx)

	c.preview.stop()
	c.mailbox.close()
	cancel()
	c.pumps.Wait()
	c.bg.Wait()

	c.logger.Info().Str(xglog.FieldEvent, "device.stopped").Msg("camera loop stopped")
	return nil
}

func (c *Camera) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.mailbox.notify:
			for _, fn := range c.mailbox.drain() {
				c.guard("loop", fn)
			}
		}
	}
}

// guard runs fn and logs a panic instead of tearing down the loop.
func (c *Camera) guard(where string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error().
				Str(xglog.FieldEvent, "device.callback_panic").
				Str("where", where).
				Interface("panic", rec).
				Msg("callback panicked on camera loop")
		}
	}()
	fn()
}

func (c *Camera) submit(fn func()) error {
	if !c.mailbox.post(fn) {
		return ErrStopped
	}
	return nil
}

// pumpStatus runs until the source closes its channel, which it does once
// the Run context is cancelled.
func (c *Camera) pumpStatus(changes <-chan struct{}) {
	defer c.pumps.Done()
	for range changes {
		c.readStatus()
	}
}

// readStatus reads off the loop and posts the value, so that the value is
// taken as close to the notification as possible while ordering is kept.
func (c *Camera) readStatus() {
	raw, err := c.deps.Status.Read()
	if err != nil {
		c.logger.Debug().Err(err).Str(xglog.FieldEvent, "device.status_read_failed").Msg("status unreadable")
		return
	}
	c.mailbox.post(func() { c.tracker.observe(raw) })
}

func (c *Camera) pumpArtifacts(events <-chan ArtifactEvent) {
	defer c.pumps.Done()
	for ev := range events {
		c.mailbox.post(func() { c.handleArtifact(ev) })
	}
}

func (c *Camera) handleArtifact(ev ArtifactEvent) {
	if ev.Kind != ArtifactCreated {
		return
	}
	path := ev.Name
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.cfg.MediaDir, path)
	}
	switch {
	case c.ledger.Excludes(path):
		metrics.IncArtifact("excluded")
	case c.ledger.Record(path):
		metrics.IncArtifact("recorded")
		c.logger.Debug().Str(xglog.FieldEvent, "device.artifact_recorded").Str(xglog.FieldPath, path).Msg("media file created")
	default:
		metrics.IncArtifact("duplicate")
	}
}

// Status returns the last observed status. It is safe for concurrent use.
func (c *Camera) Status() Status {
	return c.tracker.Current()
}

// Tuning returns the last applied tuning values. It is safe for concurrent use.
func (c *Camera) Tuning() Tuning {
	return *c.tuning.Load()
}

// FPS is the configured preview rate.
func (c *Camera) FPS() int { return c.cfg.FPS }

// OnStatusChange registers fn for every status transition. The returned
// disposer is idempotent and may be called from fn itself.
func (c *Camera) OnStatusChange(fn func(Status)) (func(), error) {
	if fn == nil {
		return nil, errNilCallback
	}
	dispose := c.registry.subscribe(nil, fn)
	metrics.SetSubscribers("status", c.registry.len())
	return func() {
		dispose()
		metrics.SetSubscribers("status", c.registry.len())
	}, nil
}

// OnPreviewImage registers fn for preview frames. The preview loop runs only
// while at least one subscriber exists and the device is not halted.
func (c *Camera) OnPreviewImage(fn FrameFunc) (func(), error) {
	if fn == nil {
		return nil, errNilCallback
	}
	s := &previewSub{fn: fn}
	if err := c.submit(func() { c.preview.add(s) }); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			s.disposed.Store(true)
			c.mailbox.post(func() { c.preview.remove(s) })
		})
	}, nil
}

var errNilCallback = &ValidationError{Field: "callback", Reason: "is required"}
