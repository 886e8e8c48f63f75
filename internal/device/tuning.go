// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import (
	"fmt"
	"strconv"
)

// Param names a tunable camera setting.
type Param string

const (
	ParamSharpness  Param = "sharpness"
	ParamContrast   Param = "contrast"
	ParamBrightness Param = "brightness"
	ParamSaturation Param = "saturation"
	ParamISO        Param = "iso"
	ParamResolution Param = "resolution"
)

type paramSpec struct {
	code     string
	min, max int
}

var intParams = map[Param]paramSpec{
	ParamSharpness:  {code: "sh", min: -100, max: 100},
	ParamContrast:   {code: "co", min: -100, max: 100},
	ParamBrightness: {code: "br", min: 0, max: 100},
	ParamSaturation: {code: "sa", min: -100, max: 100},
	ParamISO:        {code: "is", min: 0, max: 1600}, // 0 selects auto
}

// Resolution is the argument of the px command.
type Resolution struct {
	VideoWidth  int `json:"video_width" yaml:"videoWidth"`
	VideoHeight int `json:"video_height" yaml:"videoHeight"`
	VideoFPS    int `json:"video_fps" yaml:"videoFps"`
	BoxingFPS   int `json:"boxing_fps" yaml:"boxingFps"`
	ImageWidth  int `json:"image_width" yaml:"imageWidth"`
	ImageHeight int `json:"image_height" yaml:"imageHeight"`
}

// Validate checks that every field fits the fixed-width command format.
func (r Resolution) Validate() error {
	fields := []struct {
		name     string
		v, limit int
	}{
		{"videoWidth", r.VideoWidth, 9999},
		{"videoHeight", r.VideoHeight, 9999},
		{"videoFps", r.VideoFPS, 99},
		{"boxingFps", r.BoxingFPS, 99},
		{"imageWidth", r.ImageWidth, 9999},
		{"imageHeight", r.ImageHeight, 9999},
	}
	for _, f := range fields {
		if f.v < 1 || f.v > f.limit {
			return invalidField("resolution."+f.name, "must be between 1 and %d, got %d", f.limit, f.v)
		}
	}
	return nil
}

func (r Resolution) arg() string {
	return fmt.Sprintf("%04d %04d %02d %02d %04d %04d",
		r.VideoWidth, r.VideoHeight, r.VideoFPS, r.BoxingFPS, r.ImageWidth, r.ImageHeight)
}

// Tuning is the set of values last confirmed as applied. Nil means the value
// has not been set through this process.
type Tuning struct {
	Sharpness  *int        `json:"sharpness,omitempty"`
	Contrast   *int        `json:"contrast,omitempty"`
	Brightness *int        `json:"brightness,omitempty"`
	Saturation *int        `json:"saturation,omitempty"`
	ISO        *int        `json:"iso,omitempty"`
	Resolution *Resolution `json:"resolution,omitempty"`
}

func (t Tuning) with(p Param, v int, res *Resolution) Tuning {
	switch p {
	case ParamSharpness:
		t.Sharpness = &v
	case ParamContrast:
		t.Contrast = &v
	case ParamBrightness:
		t.Brightness = &v
	case ParamSaturation:
		t.Saturation = &v
	case ParamISO:
		t.ISO = &v
	case ParamResolution:
		r := *res
		t.Resolution = &r
	}
	return t
}

// setRequest is one setter call after validation.
type setRequest struct {
	param Param
	arg   string
	value int
	res   *Resolution
}

func (s setRequest) command() string {
	if s.param == ParamResolution {
		return "px " + s.arg
	}
	return intParams[s.param].code + " " + s.arg
}

func newIntSet(p Param, v int) (setRequest, error) {
	bounds, ok := intParams[p]
	if !ok {
		return setRequest{}, invalidField("param", "unknown parameter %q", p)
	}
	if v < bounds.min || v > bounds.max {
		return setRequest{}, invalidField(string(p), "must be between %d and %d, got %d", bounds.min, bounds.max, v)
	}
	return setRequest{param: p, arg: strconv.Itoa(v), value: v}, nil
}

func newResolutionSet(r Resolution) (setRequest, error) {
	if err := r.Validate(); err != nil {
		return setRequest{}, err
	}
	return setRequest{param: ParamResolution, arg: r.arg(), res: &r}, nil
}

// inflightSet is a setter command that has been handed to the sink but has
// not completed. Identical requests join its waiters.
type inflightSet struct {
	seq     uint64
	req     setRequest
	waiters []DoneFunc
}
