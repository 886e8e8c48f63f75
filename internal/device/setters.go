// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import xglog "github.com/ManuGH/picam/internal/log"

var setterNames = map[Param]string{
	ParamSharpness:  "setSharpness",
	ParamContrast:   "setContrast",
	ParamBrightness: "setBrightness",
	ParamSaturation: "setSaturation",
	ParamISO:        "setISO",
	ParamResolution: "setResolution",
}

// SetSharpness applies sharpness in [-100, 100].
func (c *Camera) SetSharpness(v int, cb DoneFunc) error { return c.SetParam(ParamSharpness, v, cb) }

// SetContrast applies contrast in [-100, 100].
func (c *Camera) SetContrast(v int, cb DoneFunc) error { return c.SetParam(ParamContrast, v, cb) }

// SetBrightness applies brightness in [0, 100].
func (c *Camera) SetBrightness(v int, cb DoneFunc) error { return c.SetParam(ParamBrightness, v, cb) }

// SetSaturation applies saturation in [-100, 100].
func (c *Camera) SetSaturation(v int, cb DoneFunc) error { return c.SetParam(ParamSaturation, v, cb) }

// SetISO applies an ISO value; 0 selects automatic.
func (c *Camera) SetISO(v int, cb DoneFunc) error { return c.SetParam(ParamISO, v, cb) }

// SetParam applies one integer parameter. Setting the value that was last
// applied resolves without sending anything, and an identical request that
// is still in flight is joined rather than repeated.
func (c *Camera) SetParam(p Param, v int, cb DoneFunc) error {
	if cb == nil {
		return errNilCallback
	}
	req, err := newIntSet(p, v)
	if err != nil {
		return err
	}
	return c.submit(func() { c.apply(req, cb) })
}

// SetResolution applies the capture sizes and rates with the same idempotence
// as SetParam.
func (c *Camera) SetResolution(r Resolution, cb DoneFunc) error {
	if cb == nil {
		return errNilCallback
	}
	req, err := newResolutionSet(r)
	if err != nil {
		return err
	}
	return c.submit(func() { c.apply(req, cb) })
}

func (c *Camera) apply(req setRequest, cb DoneFunc) {
	command := req.command()
	op := c.newOperation(transition{name: setterNames[req.param], command: command}, nil)

	if in, ok := c.inflight[req.param]; ok {
		if in.req.arg == req.arg {
			op.noop = true
			c.resolve(op, nil)
			in.waiters = append(in.waiters, cb)
			return
		}
	} else if applied, ok := c.applied[req.param]; ok && applied == req.arg {
		op.noop = true
		c.resolve(op, nil)
		cb(nil)
		return
	}

	c.setSeq++
	in := &inflightSet{seq: c.setSeq, req: req, waiters: []DoneFunc{cb}}
	c.inflight[req.param] = in

	op.logger.Debug().
		Str(xglog.FieldEvent, "device.command_sent").
		Str(xglog.FieldCommand, command).
		Msg("sending command")
	c.send(command, func(err error) {
		if c.inflight[req.param] == in {
			delete(c.inflight, req.param)
		}
		if err == nil && in.seq > c.appliedSeq[req.param] {
			c.applied[req.param] = req.arg
			c.appliedSeq[req.param] = in.seq
			next := c.Tuning().with(req.param, req.value, req.res)
			c.tuning.Store(&next)
		}
		c.resolve(op, err)
		for _, w := range in.waiters {
			c.guard(op.t.name, func() { w(err) })
		}
	})
}
