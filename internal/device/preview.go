// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import (
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/picam/internal/log"
	"github.com/ManuGH/picam/internal/metrics"
)

// FrameFunc receives a preview frame. The slice is shared between all
// subscribers of one tick and must not be modified.
type FrameFunc func(frame []byte)

type previewSub struct {
	id       uint64
	fn       FrameFunc
	disposed atomic.Bool
}

// previewScheduler reads and fans out preview frames while there is at least
// one subscriber and the device is not halted. All methods except the timer
// callback run on the camera loop.
type previewScheduler struct {
	period time.Duration
	frames FrameSource
	clock  Clock
	post   func(func()) bool
	status func() Status
	logger zerolog.Logger

	nextID  uint64
	subs    []*previewSub
	running bool
	gen     uint64
	timer   Timer
}

func newPreviewScheduler(fps int, frames FrameSource, clock Clock, post func(func()) bool, status func() Status, logger zerolog.Logger) *previewScheduler {
	return &previewScheduler{
		period: time.Second / time.Duration(fps),
		frames: frames,
		clock:  clock,
		post:   post,
		status: status,
		logger: logger,
	}
}

func (p *previewScheduler) add(s *previewSub) {
	p.nextID++
	s.id = p.nextID
	p.subs = append(p.subs, s)
	metrics.SetSubscribers("preview", len(p.subs))
	p.reconcile()
}

func (p *previewScheduler) remove(s *previewSub) {
	p.subs = slices.DeleteFunc(p.subs, func(x *previewSub) bool { return x == s })
	metrics.SetSubscribers("preview", len(p.subs))
	p.reconcile()
}

// reconcile starts or stops the loop to match the run condition.
func (p *previewScheduler) reconcile() {
	should := len(p.subs) > 0 && p.status() != StatusHalted
	switch {
	case should && !p.running:
		p.running = true
		p.gen++
		metrics.SetPreviewRunning(true)
		p.logger.Debug().Str(xglog.FieldEvent, "preview.started").Int("subscribers", len(p.subs)).Msg("preview loop started")
		p.tick(p.gen)
	case !should && p.running:
		p.stop()
		p.logger.Debug().Str(xglog.FieldEvent, "preview.stopped").Msg("preview loop stopped")
	}
}

func (p *previewScheduler) stop() {
	if !p.running {
		return
	}
	p.running = false
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	metrics.SetPreviewRunning(false)
}

// tick reads one frame, delivers it and schedules the next tick so that the
// time spent here counts against the period.
func (p *previewScheduler) tick(gen uint64) {
	if !p.running || gen != p.gen {
		return
	}
	p.timer = nil
	start := p.clock.Now()

	result := "delivered"
	frame, err := p.frames.ReadFrame()
	switch {
	case errors.Is(err, ErrTornFrame):
		result = "torn"
	case err != nil:
		result = "read_error"
		p.logger.Debug().Err(err).Str(xglog.FieldEvent, "preview.read_failed").Msg("preview frame unavailable")
	case !IsCompleteJPEG(frame):
		result = "torn"
	default:
		for _, s := range slices.Clone(p.subs) {
			if s.disposed.Load() {
				continue
			}
			p.deliver(s, frame)
		}
	}

	elapsed := p.clock.Now().Sub(start)
	metrics.ObservePreviewTick(result, elapsed)

	// A subscriber may have disposed itself or the last subscriber may be gone.
	if !p.running || gen != p.gen {
		return
	}
	delay := p.period - elapsed
	if delay < 0 {
		delay = 0
	}
	p.timer = p.clock.AfterFunc(delay, func() {
		p.post(func() { p.tick(gen) })
	})
}

func (p *previewScheduler) deliver(s *previewSub, frame []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error().
				Str(xglog.FieldEvent, "preview.subscriber_panic").
				Uint64("subscription", s.id).
				Interface("panic", rec).
				Msg("preview subscriber panicked")
		}
	}()
	s.fn(frame)
}
