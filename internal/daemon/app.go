// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/picam/internal/api"
	"github.com/ManuGH/picam/internal/config"
	"github.com/ManuGH/picam/internal/device"
	"github.com/ManuGH/picam/internal/health"
	"github.com/ManuGH/picam/internal/journal"
	"github.com/ManuGH/picam/internal/log"
)

const journalPingTimeout = 2 * time.Second

// App is a fully wired daemon: camera, journal, health and HTTP surfaces.
type App struct {
	Manager Manager
	Camera  *device.Camera
	Journal *journal.Store
}

// Build composes the daemon from cfg. Nothing runs until Manager.Start.
// Resources opened here are released by the manager's shutdown hooks.
func Build(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (*App, error) {
	provider, err := initTelemetry(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var store *journal.Store
	var devOpts []device.Option
	if cfg.Journal.Path != "" {
		store, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			_ = provider.Shutdown(ctx)
			return nil, fmt.Errorf("open journal: %w", err)
		}
		devOpts = append(devOpts, device.WithRecorder(store))
	}

	cam, err := device.Open(cfg.Camera.Device(), log.WithComponent("device"), devOpts...)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		_ = provider.Shutdown(ctx)
		return nil, fmt.Errorf("open camera: %w", err)
	}

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewCameraChecker(cam.Status))
	hm.RegisterChecker(health.NewFileChecker("status_file", cfg.Camera.StatusPath))

	apiOpts := []api.Option{api.WithHealth(hm)}
	if store != nil {
		hm.RegisterChecker(health.NewPingChecker("journal", journalPingTimeout, store.Ping))
		apiOpts = append(apiOpts, api.WithCaptures(store))
	}

	apiCfg := api.Config{
		OperationTimeout: cfg.API.OperationTimeout,
		PreviewMaxFPS:    cfg.API.PreviewMaxFPS,
		RateLimit:        cfg.API.RateLimit,
	}
	if cfg.Telemetry.Enabled {
		apiCfg.TracingService = ServiceName
	}
	srv := api.New(apiCfg, cam, apiOpts...)

	var metricsHandler http.Handler
	if cfg.Metrics.ListenAddr != "" {
		metricsHandler = promhttp.Handler()
	}

	mgr, err := NewManager(ServerConfig{
		ListenAddr:  cfg.API.ListenAddr,
		IdleTimeout: 120 * time.Second,
	}, Deps{
		Logger:         logger,
		Camera:         cam,
		APIHandler:     srv.Handler(),
		MetricsHandler: metricsHandler,
		MetricsAddr:    cfg.Metrics.ListenAddr,
	})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	// LIFO: the journal closes before the tracer flushes.
	mgr.RegisterShutdownHook("telemetry", provider.Shutdown)
	if store != nil {
		mgr.RegisterShutdownHook("journal", func(context.Context) error { return store.Close() })
	}

	return &App{Manager: mgr, Camera: cam, Journal: store}, nil
}

// Run builds the daemon and serves until ctx is cancelled.
func Run(ctx context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("daemon")
	logger.Info().
		Str("version", cfg.Version).
		Str("listen", cfg.API.ListenAddr).
		Str("fifo", cfg.Camera.FIFOPath).
		Msg("starting picam daemon")

	app, err := Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return app.Manager.Start(ctx)
}
