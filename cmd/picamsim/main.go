// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

// Command picamsim emulates a RaspiMJPEG process in a directory so picamd
// can run without camera hardware.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ManuGH/picam/internal/devsim"
	xglog "github.com/ManuGH/picam/internal/log"
	"github.com/ManuGH/picam/internal/version"
)

func main() {
	dir := flag.String("dir", "/tmp/picamsim", "directory holding FIFO, status file, preview and media")
	fps := flag.Int("fps", 10, "preview frames per second")
	imageDelay := flag.Duration("image-delay", 150*time.Millisecond, "time to write a still image")
	boxingDelay := flag.Duration("boxing-delay", 300*time.Millisecond, "time to box a recording")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	xglog.Configure(xglog.Config{
		Level:   *logLevel,
		Service: "picamsim",
		Version: version.Version,
	})
	logger := xglog.WithComponent("devsim")

	sim, err := devsim.New(devsim.Config{
		Dir:         *dir,
		PreviewFPS:  *fps,
		ImageDelay:  *imageDelay,
		BoxingDelay: *boxingDelay,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Str(xglog.FieldPath, *dir).Msg("failed to prepare simulator")
	}

	paths := sim.Paths()
	logger.Info().
		Str("fifo", paths.FIFO).
		Str("status", paths.Status).
		Str("preview", paths.Preview).
		Str("media", paths.MediaDir).
		Msg("point PICAM_* paths here")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sim.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("simulator failed")
		stop()
		os.Exit(1)
	}
}
