// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestStatusTracker_Observe(t *testing.T) {
	reg := newRegistry(zerolog.Nop())
	tr := newStatusTracker(reg, zerolog.Nop())

	var fired []Status
	reg.subscribe(nil, func(s Status) { fired = append(fired, s) })
	var after []string
	tr.afterFire = func(prev, next Status) {
		after = append(after, string(prev)+">"+string(next))
	}

	assert.Equal(t, StatusUnknown, tr.Current())
	assert.False(t, tr.observe(""))
	assert.False(t, tr.observe(" \n"))
	assert.True(t, tr.observe("ready\n"))
	assert.False(t, tr.observe("ready"))
	assert.True(t, tr.observe("md_video"))
	assert.True(t, tr.observe("something_new"))

	assert.Equal(t, []Status{StatusReady, StatusMDVideo, Status("something_new")}, fired)
	assert.Equal(t, []string{"unknown>ready", "ready>md_video", "md_video>something_new"}, after)
	assert.Equal(t, Status("something_new"), tr.Current())
}

func TestStatusTracker_CurrentVisibleToSubscribers(t *testing.T) {
	reg := newRegistry(zerolog.Nop())
	tr := newStatusTracker(reg, zerolog.Nop())

	var seen Status
	reg.subscribe(nil, func(Status) { seen = tr.Current() })
	tr.observe("video")
	assert.Equal(t, StatusVideo, seen)
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("  boxing\r\n")
	assert.True(t, ok)
	assert.Equal(t, StatusBoxing, s)
	assert.True(t, s.Known())
	assert.False(t, Status("foo").Known())

	_, ok = ParseStatus("\t")
	assert.False(t, ok)
}
