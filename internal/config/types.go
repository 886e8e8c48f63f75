// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// AppConfig is the effective configuration after defaults, file and environment are merged.
type AppConfig struct {
	Version  string
	LogLevel string

	Camera    CameraConfig
	API       APIConfig
	Metrics   MetricsConfig
	Journal   JournalConfig
	Telemetry TelemetryConfig
}

// CameraConfig locates the camera's control surface.
type CameraConfig struct {
	FPS                int
	PreviewPath        string
	StatusPath         string
	FIFOPath           string
	MediaDir           string
	StatusPollInterval time.Duration
	CommandTimeout     time.Duration
	TransientSuffixes  []string
}

// APIConfig configures the HTTP API server.
type APIConfig struct {
	ListenAddr       string
	OperationTimeout time.Duration
	// RateLimit is requests per minute per client IP. 0 disables limiting.
	RateLimit     int
	PreviewMaxFPS int
}

// MetricsConfig configures the Prometheus listener. An empty ListenAddr disables it.
type MetricsConfig struct {
	ListenAddr string
}

// JournalConfig configures the capture journal. An empty Path disables it.
type JournalConfig struct {
	Path string
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool
	ExporterType string
	Endpoint     string
	Environment  string
	SamplingRate float64
}

// FileConfig is the on-disk YAML shape. Pointers distinguish "unset" from zero values.
type FileConfig struct {
	LogLevel  string              `yaml:"logLevel,omitempty"`
	Camera    CameraFileConfig    `yaml:"camera,omitempty"`
	API       APIFileConfig       `yaml:"api,omitempty"`
	Metrics   MetricsFileConfig   `yaml:"metrics,omitempty"`
	Journal   JournalFileConfig   `yaml:"journal,omitempty"`
	Telemetry TelemetryFileConfig `yaml:"telemetry,omitempty"`
}

type CameraFileConfig struct {
	FPS                *int     `yaml:"fps,omitempty"`
	PreviewPath        string   `yaml:"previewPath,omitempty"`
	StatusPath         string   `yaml:"statusPath,omitempty"`
	FIFOPath           string   `yaml:"fifoPath,omitempty"`
	MediaDir           string   `yaml:"mediaDir,omitempty"`
	StatusPollInterval string   `yaml:"statusPollInterval,omitempty"` // e.g. "1s", "0" disables polling
	CommandTimeout     string   `yaml:"commandTimeout,omitempty"`
	TransientSuffixes  []string `yaml:"transientSuffixes,omitempty"`
}

type APIFileConfig struct {
	ListenAddr       string `yaml:"listenAddr,omitempty"`
	OperationTimeout string `yaml:"operationTimeout,omitempty"`
	RateLimit        *int   `yaml:"rateLimit,omitempty"`
	PreviewMaxFPS    *int   `yaml:"previewMaxFPS,omitempty"`
}

type MetricsFileConfig struct {
	ListenAddr *string `yaml:"listenAddr,omitempty"`
}

type JournalFileConfig struct {
	Path *string `yaml:"path,omitempty"`
}

type TelemetryFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	ExporterType string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	Environment  string   `yaml:"environment,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}
