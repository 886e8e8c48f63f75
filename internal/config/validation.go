// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"time"

	"github.com/ManuGH/picam/internal/device"
	"github.com/ManuGH/picam/internal/validate"
)

var (
	logLevels     = []string{"trace", "debug", "info", "warn", "error"}
	exporterTypes = []string{"grpc", "http"}
)

// Validate checks ranges and addresses. Path existence is left to device.Open.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.OneOf("logLevel", cfg.LogLevel, logLevels)

	cam := cfg.Camera
	v.Range("camera.fps", cam.FPS, 1, device.MaxFPS)
	v.NotEmpty("camera.previewPath", cam.PreviewPath)
	v.NotEmpty("camera.statusPath", cam.StatusPath)
	v.NotEmpty("camera.fifoPath", cam.FIFOPath)
	v.NotEmpty("camera.mediaDir", cam.MediaDir)
	v.NonNegativeDuration("camera.statusPollInterval", cam.StatusPollInterval)
	v.MinDuration("camera.commandTimeout", cam.CommandTimeout, 100*time.Millisecond)

	api := cfg.API
	v.ListenAddr("api.listenAddr", api.ListenAddr)
	v.MinDuration("api.operationTimeout", api.OperationTimeout, time.Second)
	if api.RateLimit < 0 {
		v.AddError("api.rateLimit", "value cannot be negative", api.RateLimit)
	}
	v.Range("api.previewMaxFPS", api.PreviewMaxFPS, 1, device.MaxFPS)

	if cfg.Metrics.ListenAddr != "" {
		v.ListenAddr("metrics.listenAddr", cfg.Metrics.ListenAddr)
	}

	if tel := cfg.Telemetry; tel.Enabled {
		v.OneOf("telemetry.exporter", tel.ExporterType, exporterTypes)
		v.NotEmpty("telemetry.endpoint", tel.Endpoint)
		v.FloatRange("telemetry.samplingRate", tel.SamplingRate, 0, 1)
	}

	return v.Err()
}
