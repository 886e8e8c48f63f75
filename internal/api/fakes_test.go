// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"sync"
	"time"

	"github.com/ManuGH/picam/internal/device"
)

// fakeCamera resolves every operation from a goroutine with the configured
// outcome, the way the camera loop calls back off the request goroutine.
type fakeCamera struct {
	mu     sync.Mutex
	status device.Status
	tuning device.Tuning
	fps    int

	syncErr error
	result  error
	files   []string
	hang    bool
	boxing  bool

	calls     []string
	lastParam device.Param
	lastValue int
	lastRes   device.Resolution
	interval  time.Duration

	nextID     int
	statusSubs map[int]func(device.Status)

	frame      []byte
	frameEvery time.Duration
	previewWG  sync.WaitGroup
}

func newFakeCamera() *fakeCamera {
	return &fakeCamera{
		status:     device.StatusReady,
		fps:        25,
		statusSubs: make(map[int]func(device.Status)),
		frame:      []byte{0xFF, 0xD8, 0x01, 0x02, 0xFF, 0xD9},
		frameEvery: 5 * time.Millisecond,
	}
}

func (f *fakeCamera) op(name string, reply func([]string, error)) error {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	syncErr, hang, files, res := f.syncErr, f.hang, f.files, f.result
	f.mu.Unlock()
	if syncErr != nil {
		return syncErr
	}
	if hang {
		return nil
	}
	if res != nil {
		files = []string{}
	}
	go reply(files, res)
	return nil
}

func (f *fakeCamera) doneOp(name string, cb device.DoneFunc) error {
	return f.op(name, func(_ []string, err error) { cb(err) })
}

func (f *fakeCamera) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeCamera) Status() device.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeCamera) Tuning() device.Tuning {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tuning
}

func (f *fakeCamera) FPS() int { return f.fps }

func (f *fakeCamera) setStatus(st device.Status) {
	f.mu.Lock()
	f.status = st
	subs := make([]func(device.Status), 0, len(f.statusSubs))
	for _, fn := range f.statusSubs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}

func (f *fakeCamera) statusSubscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.statusSubs)
}

func (f *fakeCamera) OnStatusChange(fn func(device.Status)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.statusSubs[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.statusSubs, id)
		f.mu.Unlock()
	}, nil
}

// OnPreviewImage delivers the configured frame every frameEvery until disposed.
func (f *fakeCamera) OnPreviewImage(fn device.FrameFunc) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	f.previewWG.Add(1)
	go func() {
		defer f.previewWG.Done()
		t := time.NewTicker(f.frameEvery)
		defer t.Stop()
		for {
			fn(f.frame)
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			f.previewWG.Wait()
		})
	}, nil
}

func (f *fakeCamera) StartCamera(cb device.DoneFunc) error   { return f.doneOp("startCamera", cb) }
func (f *fakeCamera) StopCamera(cb device.DoneFunc) error    { return f.doneOp("stopCamera", cb) }
func (f *fakeCamera) DisposeCamera(cb device.DoneFunc) error { return f.doneOp("disposeCamera", cb) }
func (f *fakeCamera) StartRecording(cb device.DoneFunc) error {
	return f.doneOp("startRecording", cb)
}

func (f *fakeCamera) TakePicture(cb device.FilesFunc) error { return f.op("takePicture", cb) }
func (f *fakeCamera) StopTimelapse(cb device.FilesFunc) error {
	return f.op("stopTimelapse", cb)
}

func (f *fakeCamera) StartTimelapse(interval time.Duration, cb device.DoneFunc) error {
	f.mu.Lock()
	f.interval = interval
	f.mu.Unlock()
	return f.doneOp("startTimelapse", cb)
}

func (f *fakeCamera) StopRecording(cb device.FilesFunc, boxing device.BoxingFunc) error {
	f.mu.Lock()
	box := f.boxing
	f.mu.Unlock()
	return f.op("stopRecording", func(files []string, err error) {
		if box && boxing != nil {
			boxing()
		}
		cb(files, err)
	})
}

func (f *fakeCamera) SetParam(p device.Param, v int, cb device.DoneFunc) error {
	f.mu.Lock()
	f.lastParam, f.lastValue = p, v
	f.mu.Unlock()
	return f.doneOp("setParam", cb)
}

func (f *fakeCamera) SetResolution(r device.Resolution, cb device.DoneFunc) error {
	f.mu.Lock()
	f.lastRes = r
	f.mu.Unlock()
	return f.doneOp("setResolution", cb)
}

type fakeCaptures struct {
	list      []device.Capture
	err       error
	lastLimit int
}

func (f *fakeCaptures) List(_ context.Context, limit int) ([]device.Capture, error) {
	f.lastLimit = limit
	return f.list, f.err
}
