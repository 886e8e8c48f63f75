// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package devsim

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/picam/internal/log"
)

// publishGap separates writing a media file from announcing the next status,
// like the real process does while it renders thumbnails.
const publishGap = 50 * time.Millisecond

// Config tunes the simulator.
type Config struct {
	Dir         string
	PreviewFPS  int
	ImageDelay  time.Duration
	BoxingDelay time.Duration
	Logger      zerolog.Logger
}

func (c Config) withDefaults() Config {
	if c.PreviewFPS <= 0 {
		c.PreviewFPS = 10
	}
	if c.ImageDelay <= 0 {
		c.ImageDelay = 150 * time.Millisecond
	}
	if c.BoxingDelay <= 0 {
		c.BoxingDelay = 300 * time.Millisecond
	}
	return c
}

// Sim plays the camera process. Commands are applied in arrival order by Run.
type Sim struct {
	cfg    Config
	paths  Paths
	logger zerolog.Logger

	mu       sync.Mutex
	status   string
	history  []string
	settings map[string]string

	// Owned by Run.
	seq       int
	frame     int
	recording string
	tlEvery   time.Duration
	delayed   func()
	delayAt   <-chan time.Time
}

// New prepares the directory layout, publishes "halted" and a first preview
// frame.
func New(cfg Config) (*Sim, error) {
	if cfg.Dir == "" {
		return nil, errors.New("devsim: directory is required")
	}
	cfg = cfg.withDefaults()
	s := &Sim{
		cfg:      cfg,
		paths:    Layout(cfg.Dir),
		logger:   cfg.Logger.With().Str(xglog.FieldComponent, "devsim").Logger(),
		settings: make(map[string]string),
	}
	if err := s.paths.prepare(); err != nil {
		return nil, err
	}
	if err := s.setStatus("halted"); err != nil {
		return nil, err
	}
	if err := s.writePreview(); err != nil {
		return nil, err
	}
	return s, nil
}

// Paths returns the simulated surface.
func (s *Sim) Paths() Paths { return s.paths }

// Status returns the status last published.
func (s *Sim) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Commands returns every command line received so far.
func (s *Sim) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.history...)
}

// Setting returns the last value received for a tuning code such as "sh".
func (s *Sim) Setting(code string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.settings[code]
	return v, ok
}

// Run reads the pipe and executes commands until ctx is cancelled.
func (s *Sim) Run(ctx context.Context) error {
	// Opening read-write keeps a writer attached, so the open does not block
	// and reads never hit EOF between commands.
	pipe, err := os.OpenFile(s.paths.FIFO, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open command pipe: %w", err)
	}

	lines := make(chan string)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		scanner := bufio.NewScanner(pipe)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	defer func() {
		_ = pipe.Close()
		<-readDone
	}()

	preview := time.NewTicker(time.Second / time.Duration(s.cfg.PreviewFPS))
	defer preview.Stop()
	var timelapse *time.Ticker
	var tlTick <-chan time.Time
	defer func() {
		if timelapse != nil {
			timelapse.Stop()
		}
	}()

	s.logger.Info().Str(xglog.FieldEvent, "devsim.started").Str(xglog.FieldPath, s.cfg.Dir).Msg("camera simulator running")
	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-lines:
			every := s.tlEvery
			s.handle(line)
			if s.tlEvery == every {
				continue
			}
			if timelapse != nil {
				timelapse.Stop()
				timelapse, tlTick = nil, nil
			}
			if s.tlEvery > 0 {
				timelapse = time.NewTicker(s.tlEvery)
				tlTick = timelapse.C
			}
		case <-preview.C:
			if s.Status() != "halted" {
				s.logErr(s.writePreview())
			}
		case <-tlTick:
			s.logErr(s.capture("tl", ".jpg"))
		case <-s.delayAt:
			fn := s.delayed
			s.delayed, s.delayAt = nil, nil
			fn()
		}
	}
}

func (s *Sim) handle(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	s.mu.Lock()
	s.history = append(s.history, line)
	s.mu.Unlock()

	code, arg, _ := strings.Cut(line, " ")
	status := s.Status()
	s.logger.Debug().Str(xglog.FieldEvent, "devsim.command").Str(xglog.FieldCommand, line).Str("status", status).Msg("command received")

	switch {
	case code == "ru" && arg == "1" && status == "halted":
		s.logErr(s.setStatus("ready"))
	case code == "ru" && arg == "0" && status != "halted":
		s.tlEvery = 0
		s.logErr(s.setStatus("halted"))
	case code == "im" && status == "ready":
		s.logErr(s.setStatus("image"))
		s.after(s.cfg.ImageDelay, func() {
			s.logErr(s.capture("im", ".jpg"))
			s.after(publishGap, func() { s.logErr(s.setStatus("ready")) })
		})
	case code == "ca" && arg == "1" && status == "ready":
		s.seq++
		s.recording = filepath.Join(s.paths.MediaDir, fmt.Sprintf("vi_%04d.h264", s.seq))
		s.logErr(os.WriteFile(s.recording, []byte("raw h264"), 0o644))
		s.logErr(s.setStatus("video"))
	case code == "ca" && arg == "0" && status == "video":
		s.logErr(s.setStatus("boxing"))
		raw := s.recording
		s.after(s.cfg.BoxingDelay, func() {
			boxed := strings.TrimSuffix(raw, ".h264") + ".mp4"
			s.logErr(os.WriteFile(boxed, []byte("boxed mp4"), 0o644))
			s.logErr(os.Remove(raw))
			s.after(publishGap, func() { s.logErr(s.setStatus("ready")) })
		})
	case code == "tl":
		s.timelapse(arg, status)
	case code == "sh", code == "co", code == "br", code == "sa", code == "is", code == "px":
		s.mu.Lock()
		s.settings[code] = arg
		s.mu.Unlock()
	default:
		s.logger.Warn().Str(xglog.FieldEvent, "devsim.command_ignored").Str(xglog.FieldCommand, line).Str("status", status).Msg("command ignored in current status")
	}
}

func (s *Sim) timelapse(arg, status string) {
	tenths, err := strconv.Atoi(arg)
	if err != nil || tenths < 0 {
		s.logger.Warn().Str(xglog.FieldEvent, "devsim.bad_interval").Str("arg", arg).Msg("invalid timelapse interval")
		return
	}
	switch {
	case tenths > 0 && status == "ready":
		s.tlEvery = time.Duration(tenths) * 100 * time.Millisecond
		s.logErr(s.setStatus("timelapse"))
	case tenths == 0 && status == "timelapse":
		s.tlEvery = 0
		s.logErr(s.setStatus("ready"))
	}
}

func (s *Sim) after(d time.Duration, fn func()) {
	s.delayed = fn
	s.delayAt = time.After(d)
}

func (s *Sim) capture(prefix, ext string) error {
	s.seq++
	name := fmt.Sprintf("%s_%04d_%s%s", prefix, s.seq, time.Now().Format("20060102_150405"), ext)
	frame, err := renderFrame(s.seq)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.paths.MediaDir, name), frame, 0o644)
}

func (s *Sim) setStatus(status string) error {
	if err := replaceFile(s.logger, s.paths.Status, []byte(status)); err != nil {
		return err
	}
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	s.logger.Debug().Str(xglog.FieldEvent, "devsim.status").Str(xglog.FieldNewState, status).Msg("status published")
	return nil
}

func (s *Sim) writePreview() error {
	s.frame++
	frame, err := renderFrame(s.frame)
	if err != nil {
		return err
	}
	return replaceFile(s.logger, s.paths.Preview, frame)
}

func (s *Sim) logErr(err error) {
	if err != nil {
		s.logger.Error().Err(err).Str(xglog.FieldEvent, "devsim.io_failed").Msg("simulator write failed")
	}
}
