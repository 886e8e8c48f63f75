// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	xglog "github.com/ManuGH/picam/internal/log"
	"github.com/ManuGH/picam/internal/metrics"
	"github.com/ManuGH/picam/internal/telemetry"
)

// MinTimelapseInterval is the smallest interval the tl command can express.
const MinTimelapseInterval = 100 * time.Millisecond

// transition is an operation that sends one command and completes when the
// device reports target. resets clears the ledger before sending; produces
// reports the ledger contents at resolution.
type transition struct {
	name     string
	required Status
	command  string
	target   Status
	resets   bool
	produces bool
}

var (
	startCamera    = transition{name: "startCamera", required: StatusHalted, command: "ru 1", target: StatusReady}
	stopCamera     = transition{name: "stopCamera", required: StatusReady, command: "ru 0", target: StatusHalted}
	takePicture    = transition{name: "takePicture", required: StatusReady, command: "im", target: StatusReady, resets: true, produces: true}
	stopTimelapse  = transition{name: "stopTimelapse", required: StatusTimelapse, command: "tl 0", target: StatusReady, produces: true}
	startRecording = transition{name: "startRecording", required: StatusReady, command: "ca 1", target: StatusVideo, resets: true}
	stopRecording  = transition{name: "stopRecording", required: StatusVideo, command: "ca 0", target: StatusReady, produces: true}
)

func startTimelapse(interval time.Duration) transition {
	tenths := int64(interval / MinTimelapseInterval)
	return transition{
		name:     "startTimelapse",
		required: StatusReady,
		command:  "tl " + strconv.FormatInt(tenths, 10),
		target:   StatusTimelapse,
		resets:   true,
	}
}

// operation tracks one pending request until it resolves exactly once.
type operation struct {
	id        string
	t         transition
	started   time.Time
	span      trace.Span
	logger    zerolog.Logger
	resolved  bool
	noop      bool
	disposers []func()
	reply     func(files []string, err error)
}

func (c *Camera) newOperation(t transition, reply func([]string, error)) *operation {
	id := uuid.NewString()
	_, span := c.tracer.Start(c.loopCtx, "camera."+t.name,
		trace.WithAttributes(telemetry.OperationAttributes(t.name, id, t.command, string(t.required), string(t.target))...))
	return &operation{
		id:      id,
		t:       t,
		started: c.clock.Now(),
		span:    span,
		logger: c.logger.With().
			Str(xglog.FieldOperationID, id).
			Str(xglog.FieldOperation, t.name).
			Logger(),
		reply: reply,
	}
}

// resolve settles op once; later calls are ignored. Every subscription the
// operation created is disposed before the caller is notified.
func (c *Camera) resolve(op *operation, err error) {
	if op.resolved {
		return
	}
	op.resolved = true
	for _, dispose := range op.disposers {
		dispose()
	}
	op.disposers = nil

	var files []string
	if op.t.produces {
		files = []string{}
		if err == nil {
			files = c.ledger.Snapshot()
		}
	}
	c.finish(op, err, files)
	if op.reply != nil {
		op.reply(files, err)
	}
}

func (c *Camera) finish(op *operation, err error, files []string) {
	finished := c.clock.Now()
	outcome := outcomeOf(err)
	if op.noop {
		outcome = "noop"
	}
	metrics.ObserveOperation(op.t.name, outcome, finished.Sub(op.started))

	op.span.SetAttributes(telemetry.ResultAttributes(string(c.tracker.Current()), len(files))...)
	if err != nil {
		op.span.RecordError(err)
		op.span.SetAttributes(telemetry.ErrorAttributes(err, outcome)...)
		op.span.SetStatus(codes.Error, err.Error())
	}
	op.span.End()

	ev := op.logger.Info()
	if err != nil {
		ev = op.logger.Warn().Err(err)
	}
	ev.Str(xglog.FieldEvent, "device.operation_resolved").
		Str("outcome", outcome).
		Int(xglog.FieldFiles, len(files)).
		Dur("duration", finished.Sub(op.started)).
		Msg("operation resolved")

	if op.t.produces && c.deps.Recorder != nil {
		c.record(Capture{
			ID:         op.id,
			Operation:  op.t.name,
			StartedAt:  op.started,
			FinishedAt: finished,
			Files:      files,
			Err:        errString(err),
		})
	}
}

func (c *Camera) record(capture Capture) {
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.loopCtx), 5*time.Second)
		defer cancel()
		err := c.deps.Recorder.RecordCapture(ctx, capture)
		metrics.IncJournalWrite(err == nil)
		if err != nil {
			c.logger.Warn().Err(err).
				Str(xglog.FieldEvent, "device.journal_failed").
				Str(xglog.FieldOperationID, capture.ID).
				Msg("capture not journaled")
		}
	}()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrCommandFailed):
		return "command_failed"
	default:
		return "error"
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// send writes command off the loop and posts done with nil or a
// *CommandError back onto it.
func (c *Camera) send(command string, done func(error)) {
	ctx := c.loopCtx
	timeout := c.cfg.CommandTimeout
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		sctx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		err := c.deps.Sink.Send(sctx, command)
		cancel()
		metrics.ObserveCommand(commandCode(command), err, time.Since(start))
		if err != nil {
			err = &CommandError{Command: command, Err: err}
		}
		c.mailbox.post(func() { done(err) })
	}()
}

func commandCode(command string) string {
	code, _, _ := strings.Cut(command, " ")
	return code
}

// run executes t on the loop. hooks install extra subscriptions after the
// precondition passed and before the command is sent.
func (c *Camera) run(t transition, reply func([]string, error), hooks ...func(*operation)) {
	op := c.newOperation(t, reply)
	if cur := c.tracker.Current(); cur != t.required {
		c.resolve(op, &InvalidStateError{Operation: t.name, Required: t.required, Actual: cur})
		return
	}
	if t.resets {
		c.ledger.Reset()
	}
	op.disposers = append(op.disposers, c.registry.once(is(t.target), func(Status) {
		c.resolve(op, nil)
	}))
	for _, hook := range hooks {
		hook(op)
	}

	op.logger.Debug().
		Str(xglog.FieldEvent, "device.command_sent").
		Str(xglog.FieldCommand, t.command).
		Msg("sending command")
	c.send(t.command, func(err error) {
		if err != nil {
			c.resolve(op, err)
		}
	})
}

func doneReply(cb DoneFunc) func([]string, error) {
	return func(_ []string, err error) { cb(err) }
}

func filesReply(cb FilesFunc) func([]string, error) {
	return func(files []string, err error) { cb(files, err) }
}

// StartCamera switches a halted camera on and resolves when it is ready.
func (c *Camera) StartCamera(cb DoneFunc) error {
	if cb == nil {
		return errNilCallback
	}
	return c.submit(func() { c.run(startCamera, doneReply(cb)) })
}

// StopCamera switches a ready camera off and resolves when it is halted.
func (c *Camera) StopCamera(cb DoneFunc) error {
	if cb == nil {
		return errNilCallback
	}
	return c.submit(func() { c.run(stopCamera, doneReply(cb)) })
}

// TakePicture captures a still and resolves with the files created until the
// camera is ready again.
func (c *Camera) TakePicture(cb FilesFunc) error {
	if cb == nil {
		return errNilCallback
	}
	return c.submit(func() { c.run(takePicture, filesReply(cb)) })
}

// StartTimelapse begins capturing a still every interval. The interval is sent
// in tenths of a second.
func (c *Camera) StartTimelapse(interval time.Duration, cb DoneFunc) error {
	if cb == nil {
		return errNilCallback
	}
	if interval < MinTimelapseInterval {
		return invalidField("interval", "must be at least %s, got %s", MinTimelapseInterval, interval)
	}
	t := startTimelapse(interval)
	return c.submit(func() { c.run(t, doneReply(cb)) })
}

// StopTimelapse ends a timelapse and resolves with the stills it produced.
func (c *Camera) StopTimelapse(cb FilesFunc) error {
	if cb == nil {
		return errNilCallback
	}
	return c.submit(func() { c.run(stopTimelapse, filesReply(cb)) })
}

// StartRecording starts a video capture and resolves when the camera reports
// video.
func (c *Camera) StartRecording(cb DoneFunc) error {
	if cb == nil {
		return errNilCallback
	}
	return c.submit(func() { c.run(startRecording, doneReply(cb)) })
}

// StopRecording stops a video capture. boxing, if set, is called once when
// the camera starts boxing the raw stream. cb resolves with the files created
// during the recording once the camera is ready again.
func (c *Camera) StopRecording(cb FilesFunc, boxing BoxingFunc) error {
	if cb == nil {
		return errNilCallback
	}
	return c.submit(func() { c.stopRecording(filesReply(cb), boxing) })
}

func (c *Camera) stopRecording(reply func([]string, error), boxing BoxingFunc) {
	if boxing == nil {
		c.run(stopRecording, reply)
		return
	}
	c.run(stopRecording, reply, func(op *operation) {
		op.disposers = append(op.disposers, c.registry.once(is(StatusBoxing), func(Status) {
			if !op.resolved {
				boxing()
			}
		}))
	})
}

// DisposeCamera brings the camera to halted from whatever it is doing:
// recordings and timelapses are stopped first. In a transient status it waits
// for ready or halted and decides again.
func (c *Camera) DisposeCamera(cb DoneFunc) error {
	if cb == nil {
		return errNilCallback
	}
	return c.submit(func() {
		op := c.newOperation(transition{name: "disposeCamera", target: StatusHalted}, doneReply(cb))
		c.dispose(func(err error) { c.resolve(op, err) })
	})
}

func (c *Camera) dispose(done func(error)) {
	next := func(_ []string, err error) {
		if err != nil {
			done(err)
			return
		}
		c.dispose(done)
	}
	switch cur := c.tracker.Current(); cur {
	case StatusHalted:
		done(nil)
	case StatusReady:
		c.run(stopCamera, next)
	case StatusVideo:
		c.stopRecording(next, nil)
	case StatusTimelapse:
		c.run(stopTimelapse, next)
	default:
		c.logger.Debug().
			Str(xglog.FieldEvent, "device.dispose_waiting").
			Str(xglog.FieldOldState, string(cur)).
			Msg("waiting for a settled status before disposing")
		c.registry.once(isAny(StatusReady, StatusHalted), func(Status) { c.dispose(done) })
	}
}
