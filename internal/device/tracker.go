// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/picam/internal/log"
	"github.com/ManuGH/picam/internal/metrics"
)

// statusTracker deduplicates raw status reads into transitions. A transition
// updates the current value, then fires the registry, then runs afterFire.
type statusTracker struct {
	current   atomic.Value // Status
	registry  *registry
	afterFire func(prev, next Status)
	logger    zerolog.Logger
}

func newStatusTracker(reg *registry, logger zerolog.Logger) *statusTracker {
	t := &statusTracker{registry: reg, logger: logger}
	t.current.Store(StatusUnknown)
	return t
}

// Current is safe to call from any goroutine.
func (t *statusTracker) Current() Status {
	return t.current.Load().(Status)
}

// observe must run on the camera loop. It reports whether raw caused a
// transition.
func (t *statusTracker) observe(raw string) bool {
	next, ok := ParseStatus(raw)
	if !ok {
		return false
	}
	prev := t.Current()
	if prev == next {
		return false
	}
	t.current.Store(next)

	ev := t.logger.Debug()
	if !next.Known() {
		ev = t.logger.Warn()
	}
	ev.Str(xglog.FieldEvent, "device.status_changed").
		Str(xglog.FieldOldState, string(prev)).
		Str(xglog.FieldNewState, string(next)).
		Msg("device status changed")
	metrics.SetCameraStatus(string(next))

	t.registry.fire(next)
	if t.afterFire != nil {
		t.afterFire(prev, next)
	}
	return true
}
