// SPDX-License-Identifier: MIT

// Package daemon provides the core daemon bootstrapping and lifecycle management.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ManuGH/picam/internal/config"
	"github.com/ManuGH/picam/internal/telemetry"
)

// ServiceName identifies the daemon in traces and logs.
const ServiceName = "picamd"

// initTelemetry initializes OpenTelemetry tracing. A disabled config installs
// a noop provider.
func initTelemetry(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (*telemetry.Provider, error) {
	telCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    ServiceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.ExporterType,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	}

	provider, err := telemetry.NewProvider(ctx, telCfg)
	if err != nil {
		return nil, fmt.Errorf("telemetry init failed: %w", err)
	}

	if telCfg.Enabled {
		logger.Info().
			Str("service", telCfg.ServiceName).
			Str("endpoint", telCfg.Endpoint).
			Float64("sampling_rate", telCfg.SamplingRate).
			Msg("telemetry initialized")
	}
	return provider, nil
}

// WaitForShutdown returns a context cancelled on SIGINT or SIGTERM.
func WaitForShutdown() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
