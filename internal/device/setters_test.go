// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetter_SkipsValueAlreadyApplied(t *testing.T) {
	h := newHarness(t)

	first := newDone()
	require.NoError(t, h.cam.SetSharpness(10, first.fn))
	h.expectSent("sh 10")
	require.NoError(t, first.wait(t))

	second := newDone()
	require.NoError(t, h.cam.SetSharpness(10, second.fn))
	require.NoError(t, second.wait(t))

	h.sync()
	assert.Equal(t, []string{"sh 10"}, h.sink.commands())
	require.NotNil(t, h.cam.Tuning().Sharpness)
	assert.Equal(t, 10, *h.cam.Tuning().Sharpness)
}

func TestSetter_JoinsIdenticalInFlightSend(t *testing.T) {
	h := newHarness(t)
	h.sink.hold()

	first, second := newDone(), newDone()
	require.NoError(t, h.cam.SetContrast(5, first.fn))
	require.NoError(t, h.cam.SetContrast(5, second.fn))
	h.sync()

	h.sink.release()
	h.expectSent("co 5")
	require.NoError(t, first.wait(t))
	require.NoError(t, second.wait(t))

	h.sync()
	assert.Equal(t, []string{"co 5"}, h.sink.commands())
}

func TestSetter_LatestRequestWins(t *testing.T) {
	h := newHarness(t)
	h.sink.hold()

	a, b, c := newDone(), newDone(), newDone()
	require.NoError(t, h.cam.SetISO(100, a.fn))
	require.NoError(t, h.cam.SetISO(200, b.fn))
	require.NoError(t, h.cam.SetISO(100, c.fn))
	h.sync()

	h.sink.release()
	require.NoError(t, a.wait(t))
	require.NoError(t, b.wait(t))
	require.NoError(t, c.wait(t))

	h.sync()
	assert.Len(t, h.sink.commands(), 3)
	require.NotNil(t, h.cam.Tuning().ISO)
	assert.Equal(t, 100, *h.cam.Tuning().ISO)
}

func TestSetter_FailedSendIsNotApplied(t *testing.T) {
	h := newHarness(t)
	h.sink.failOn("br 50")

	done := newDone()
	require.NoError(t, h.cam.SetBrightness(50, done.fn))
	err := done.wait(t)
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Nil(t, h.cam.Tuning().Brightness)

	retry := newDone()
	require.NoError(t, h.cam.SetBrightness(50, retry.fn))
	assert.ErrorIs(t, retry.wait(t), ErrCommandFailed)
	assert.Equal(t, []string{"br 50", "br 50"}, h.sink.commands())
}

func TestSetter_ValidatesRange(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name  string
		call  func() error
		field string
	}{
		{"sharpness too high", func() error { return h.cam.SetSharpness(101, func(error) {}) }, "sharpness"},
		{"contrast too low", func() error { return h.cam.SetContrast(-101, func(error) {}) }, "contrast"},
		{"negative brightness", func() error { return h.cam.SetBrightness(-1, func(error) {}) }, "brightness"},
		{"saturation too high", func() error { return h.cam.SetSaturation(200, func(error) {}) }, "saturation"},
		{"iso too high", func() error { return h.cam.SetISO(3200, func(error) {}) }, "iso"},
		{"unknown param", func() error { return h.cam.SetParam(Param("gain"), 1, func(error) {}) }, "param"},
		{"zero resolution", func() error { return h.cam.SetResolution(Resolution{}, func(error) {}) }, "resolution.videoWidth"},
		{"resolution fps overflow", func() error {
			return h.cam.SetResolution(Resolution{1920, 1080, 120, 25, 2592, 1944}, func(error) {})
		}, "resolution.videoFps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}

	h.sync()
	assert.Empty(t, h.sink.commands())
}

func TestSetResolution_CommandFormat(t *testing.T) {
	h := newHarness(t)

	done := newDone()
	require.NoError(t, h.cam.SetResolution(Resolution{
		VideoWidth: 640, VideoHeight: 480, VideoFPS: 5, BoxingFPS: 5, ImageWidth: 800, ImageHeight: 600,
	}, done.fn))
	h.expectSent("px 0640 0480 05 05 0800 0600")
	require.NoError(t, done.wait(t))

	again := newDone()
	require.NoError(t, h.cam.SetResolution(Resolution{640, 480, 5, 5, 800, 600}, again.fn))
	require.NoError(t, again.wait(t))

	h.sync()
	assert.Len(t, h.sink.commands(), 1)
	require.NotNil(t, h.cam.Tuning().Resolution)
	assert.Equal(t, 800, h.cam.Tuning().Resolution.ImageWidth)
}

func TestSetters_WorkInAnyStatus(t *testing.T) {
	h := newHarness(t)
	h.status(StatusVideo)

	done := newDone()
	require.NoError(t, h.cam.SetSaturation(-20, done.fn))
	h.expectSent("sa -20")
	require.NoError(t, done.wait(t))
}
