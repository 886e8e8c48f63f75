// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_FiresMatchingInRegistrationOrder(t *testing.T) {
	r := newRegistry(zerolog.Nop())
	var order []string
	r.subscribe(is(StatusReady), func(Status) { order = append(order, "first") })
	r.subscribe(is(StatusVideo), func(Status) { order = append(order, "video-only") })
	r.subscribe(nil, func(Status) { order = append(order, "any") })
	r.subscribe(isAny(StatusReady, StatusHalted), func(Status) { order = append(order, "ready-or-halted") })

	n := r.fire(StatusReady)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"first", "any", "ready-or-halted"}, order)
}

func TestRegistry_SelfDisposeDuringFire(t *testing.T) {
	r := newRegistry(zerolog.Nop())
	calls := 0
	var dispose func()
	dispose = r.subscribe(nil, func(Status) {
		calls++
		dispose()
		dispose()
	})

	r.fire(StatusReady)
	r.fire(StatusHalted)
	assert.Equal(t, 1, calls)
	assert.Zero(t, r.len())
}

func TestRegistry_DisposedLaterInSnapshotIsSkipped(t *testing.T) {
	r := newRegistry(zerolog.Nop())
	var disposeSecond func()
	secondCalls := 0
	r.subscribe(nil, func(Status) { disposeSecond() })
	disposeSecond = r.subscribe(nil, func(Status) { secondCalls++ })

	r.fire(StatusReady)
	assert.Zero(t, secondCalls)
}

func TestRegistry_SubscribeDuringFireWaitsForNextFire(t *testing.T) {
	r := newRegistry(zerolog.Nop())
	var late []Status
	added := false
	r.subscribe(nil, func(Status) {
		if !added {
			added = true
			r.subscribe(nil, func(s Status) { late = append(late, s) })
		}
	})

	r.fire(StatusReady)
	assert.Empty(t, late)
	r.fire(StatusVideo)
	assert.Equal(t, []Status{StatusVideo}, late)
}

func TestRegistry_OnceFiresOnlyOnce(t *testing.T) {
	r := newRegistry(zerolog.Nop())
	calls := 0
	dispose := r.once(is(StatusReady), func(Status) { calls++ })

	r.fire(StatusHalted)
	assert.Equal(t, 1, r.len())
	r.fire(StatusReady)
	r.fire(StatusReady)
	assert.Equal(t, 1, calls)
	assert.Zero(t, r.len())

	require.NotPanics(t, dispose)
}

func TestRegistry_PanicDoesNotStopOthers(t *testing.T) {
	r := newRegistry(zerolog.Nop())
	reached := false
	r.subscribe(nil, func(Status) { panic("subscriber bug") })
	r.subscribe(nil, func(Status) { reached = true })

	require.NotPanics(t, func() { r.fire(StatusReady) })
	assert.True(t, reached)
}
