// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

type subscription struct {
	id       uint64
	match    func(Status) bool
	fn       func(Status)
	disposed atomic.Bool
}

// registry holds status subscriptions in registration order.
//
// fire works on a snapshot taken when it starts: subscriptions added while a
// fire is running are only seen by the next one, and a subscription disposed
// mid-fire (including by its own callback) is skipped.
type registry struct {
	mu     sync.Mutex
	nextID uint64
	subs   []*subscription
	logger zerolog.Logger
}

func newRegistry(logger zerolog.Logger) *registry {
	return &registry{logger: logger}
}

// subscribe registers fn for every status accepted by match (nil matches all)
// and returns an idempotent disposer.
func (r *registry) subscribe(match func(Status) bool, fn func(Status)) func() {
	s := &subscription{match: match, fn: fn}
	r.add(s)
	return func() { r.remove(s) }
}

// once registers a subscription that disposes itself before running fn.
func (r *registry) once(match func(Status) bool, fn func(Status)) func() {
	s := &subscription{match: match}
	s.fn = func(st Status) {
		r.remove(s)
		fn(st)
	}
	r.add(s)
	return func() { r.remove(s) }
}

func (r *registry) add(s *subscription) {
	r.mu.Lock()
	r.nextID++
	s.id = r.nextID
	r.subs = append(r.subs, s)
	r.mu.Unlock()
}

func (r *registry) remove(s *subscription) {
	if s.disposed.Swap(true) {
		return
	}
	r.mu.Lock()
	r.subs = slices.DeleteFunc(r.subs, func(x *subscription) bool { return x == s })
	r.mu.Unlock()
}

// fire invokes matching subscriptions and returns how many ran.
func (r *registry) fire(st Status) int {
	r.mu.Lock()
	snapshot := slices.Clone(r.subs)
	r.mu.Unlock()

	n := 0
	for _, s := range snapshot {
		if s.disposed.Load() {
			continue
		}
		if s.match != nil && !s.match(st) {
			continue
		}
		r.invoke(s, st)
		n++
	}
	return n
}

func (r *registry) invoke(s *subscription, st Status) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Str("event", "device.subscriber_panic").
				Uint64("subscription", s.id).
				Str("status", string(st)).
				Interface("panic", rec).
				Msg("status subscriber panicked")
		}
	}()
	s.fn(st)
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
