// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var errPipeGone = errors.New("pipe gone")

// fakeSink records commands. Commands listed in fail return errPipeGone;
// while gate is non-nil every Send waits for it to close.
type fakeSink struct {
	mu    sync.Mutex
	sent  []string
	fail  map[string]bool
	gate  chan struct{}
	notif chan string
}

func newFakeSink() *fakeSink {
	return &fakeSink{fail: make(map[string]bool), notif: make(chan string, 64)}
}

func (s *fakeSink) Send(ctx context.Context, command string) error {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	s.sent = append(s.sent, command)
	failed := s.fail[command]
	s.mu.Unlock()
	s.notif <- command
	if failed {
		return errPipeGone
	}
	return nil
}

func (s *fakeSink) commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func (s *fakeSink) failOn(command string) {
	s.mu.Lock()
	s.fail[command] = true
	s.mu.Unlock()
}

func (s *fakeSink) hold() {
	s.mu.Lock()
	s.gate = make(chan struct{})
	s.mu.Unlock()
}

func (s *fakeSink) release() {
	s.mu.Lock()
	close(s.gate)
	s.gate = nil
	s.mu.Unlock()
}

// fakeStatus never signals on its own; tests inject transitions on the loop.
type fakeStatus struct {
	mu    sync.Mutex
	value string
}

func (f *fakeStatus) Read() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, nil
}

func (f *fakeStatus) Changes(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

type fakeArtifacts struct{}

func (fakeArtifacts) Artifacts(ctx context.Context) (<-chan ArtifactEvent, error) {
	ch := make(chan ArtifactEvent)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

// fakeFrames returns frame and advances clock by cost on every read.
type fakeFrames struct {
	mu    sync.Mutex
	frame []byte
	err   error
	reads int
	clock *fakeClock
	cost  time.Duration
}

func (f *fakeFrames) ReadFrame() ([]byte, error) {
	f.mu.Lock()
	f.reads++
	frame, err, cost := f.frame, f.err, f.cost
	f.mu.Unlock()
	if f.clock != nil {
		f.clock.Advance(cost)
	}
	return frame, err
}

func (f *fakeFrames) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// pending returns timers that are neither stopped nor fired.
func (c *fakeClock) pending() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fire advances to the earliest pending timer and runs it. It returns the
// timer's delay, or false when nothing is pending.
func (c *fakeClock) fire() (time.Duration, bool) {
	pending := c.pending()
	if len(pending) == 0 {
		return 0, false
	}
	t := pending[0]
	c.mu.Lock()
	t.fired = true
	c.now = c.now.Add(t.d)
	c.mu.Unlock()
	t.f()
	return t.d, true
}

func (c *fakeClock) all() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*fakeTimer(nil), c.timers...)
}

// fakeRecorder collects journaled captures.
type fakeRecorder struct {
	mu       sync.Mutex
	captures []Capture
}

func (r *fakeRecorder) RecordCapture(_ context.Context, c Capture) error {
	r.mu.Lock()
	r.captures = append(r.captures, c)
	r.mu.Unlock()
	return nil
}

func (r *fakeRecorder) list() []Capture {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Capture(nil), r.captures...)
}

// jpeg is a minimal frame with SOI and EOI markers.
var jpeg = []byte{0xFF, 0xD8, 0x00, 0x11, 0x22, 0xFF, 0xD9}

const mediaDir = "/media"

type harness struct {
	t        *testing.T
	cam      *Camera
	sink     *fakeSink
	frames   *fakeFrames
	clock    *fakeClock
	recorder *fakeRecorder
	cancel   context.CancelFunc
	done     chan error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := newFakeClock()
	h := &harness{
		t:        t,
		sink:     newFakeSink(),
		clock:    clock,
		frames:   &fakeFrames{frame: jpeg, clock: clock, cost: 5 * time.Millisecond},
		recorder: &fakeRecorder{},
		done:     make(chan error, 1),
	}
	cam, err := New(Config{
		FPS:         25,
		PreviewPath: "/dev/shm/cam.jpg",
		StatusPath:  "/dev/shm/status",
		FIFOPath:    "/var/www/FIFO",
		MediaDir:    mediaDir,
	}, Deps{
		Sink:      h.sink,
		Status:    &fakeStatus{},
		Artifacts: fakeArtifacts{},
		Frames:    h.frames,
		Recorder:  h.recorder,
		Clock:     clock,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	h.cam = cam

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- cam.Run(ctx) }()
	t.Cleanup(h.stop)
	return h
}

func (h *harness) stop() {
	if h.cancel == nil {
		return
	}
	h.cancel()
	h.cancel = nil
	select {
	case err := <-h.done:
		require.NoError(h.t, err)
	case <-time.After(5 * time.Second):
		h.t.Fatal("camera loop did not stop")
	}
}

// onLoop runs fn on the camera loop and waits for it; everything posted
// earlier has been processed when it returns.
func (h *harness) onLoop(fn func()) {
	h.t.Helper()
	done := make(chan struct{})
	require.NoError(h.t, h.cam.submit(func() {
		fn()
		close(done)
	}))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		h.t.Fatal("camera loop did not run closure")
	}
}

func (h *harness) sync() { h.onLoop(func() {}) }

func (h *harness) status(s Status) {
	h.t.Helper()
	h.onLoop(func() { h.cam.tracker.observe(string(s)) })
}

func (h *harness) created(name string) {
	h.t.Helper()
	h.onLoop(func() { h.cam.handleArtifact(ArtifactEvent{Kind: ArtifactCreated, Name: name}) })
}

// expectSent waits for the next command written to the sink.
func (h *harness) expectSent(want string) {
	h.t.Helper()
	select {
	case got := <-h.sink.notif:
		require.Equal(h.t, want, got)
	case <-time.After(5 * time.Second):
		h.t.Fatalf("command %q was not sent", want)
	}
}

func (h *harness) subscriptions() int {
	return h.cam.registry.len()
}

func media(name string) string { return filepath.Join(mediaDir, name) }

type doneResult struct {
	mu    sync.Mutex
	calls int
	err   error
	ch    chan error
}

func newDone() *doneResult { return &doneResult{ch: make(chan error, 8)} }

func (d *doneResult) fn(err error) {
	d.mu.Lock()
	d.calls++
	d.err = err
	d.mu.Unlock()
	d.ch <- err
}

func (d *doneResult) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *doneResult) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-d.ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("callback not invoked")
		return nil
	}
}

type filesResult struct {
	mu    sync.Mutex
	calls int
	ch    chan filesOutcome
}

type filesOutcome struct {
	files []string
	err   error
}

func newFiles() *filesResult { return &filesResult{ch: make(chan filesOutcome, 8)} }

func (f *filesResult) fn(files []string, err error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	f.ch <- filesOutcome{files: files, err: err}
}

func (f *filesResult) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *filesResult) wait(t *testing.T) filesOutcome {
	t.Helper()
	select {
	case out := <-f.ch:
		return out
	case <-time.After(5 * time.Second):
		t.Fatal("files callback not invoked")
		return filesOutcome{}
	}
}
