// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/picam/internal/device"
)

// Environment variable names.
const (
	EnvFPS               = "PICAM_FPS"
	EnvPreviewPath       = "PICAM_PREVIEW_PATH"
	EnvStatusPath        = "PICAM_STATUS_PATH"
	EnvFIFOPath          = "PICAM_FIFO_PATH"
	EnvMediaDir          = "PICAM_MEDIA_DIR"
	EnvStatusPoll        = "PICAM_STATUS_POLL"
	EnvCommandTimeout    = "PICAM_COMMAND_TIMEOUT"
	EnvTransientSuffixes = "PICAM_TRANSIENT_SUFFIXES"
	EnvListen            = "PICAM_LISTEN"
	EnvOperationTimeout  = "PICAM_OPERATION_TIMEOUT"
	EnvRateLimit         = "PICAM_RATE_LIMIT"
	EnvPreviewMaxFPS     = "PICAM_PREVIEW_MAX_FPS"
	EnvMetricsListen     = "PICAM_METRICS_LISTEN"
	EnvJournalPath       = "PICAM_JOURNAL_PATH"
	EnvOTelEnabled       = "PICAM_OTEL_ENABLED"
	EnvOTelExporter      = "PICAM_OTEL_EXPORTER"
	EnvOTelEndpoint      = "PICAM_OTEL_ENDPOINT"
	EnvOTelEnvironment   = "PICAM_OTEL_ENVIRONMENT"
	EnvOTelSamplingRate  = "PICAM_OTEL_SAMPLING_RATE"
	EnvLogLevel          = "LOG_LEVEL"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader. configPath may be empty.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel: "info",
		Camera: CameraConfig{
			FPS:                25,
			PreviewPath:        "/dev/shm/mjpeg/cam.jpg",
			StatusPath:         "/dev/shm/mjpeg/status_mjpeg.txt",
			FIFOPath:           "/var/www/FIFO",
			MediaDir:           "/var/www/media",
			StatusPollInterval: device.DefaultStatusPollInterval,
			CommandTimeout:     device.DefaultCommandTimeout,
			TransientSuffixes:  append([]string(nil), device.DefaultTransientSuffixes...),
		},
		API: APIConfig{
			ListenAddr:       ":8080",
			OperationTimeout: 60 * time.Second,
			RateLimit:        120,
			PreviewMaxFPS:    10,
		},
		Metrics: MetricsConfig{ListenAddr: ":9090"},
		Journal: JournalConfig{Path: "/var/lib/picam/journal.db"},
		Telemetry: TelemetryConfig{
			ExporterType: "grpc",
			Endpoint:     "localhost:4317",
			Environment:  "production",
			SamplingRate: 1.0,
		},
	}
}

// Load loads configuration with precedence: ENV > File > Defaults.
// The merged result is validated before it is returned.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	mergeEnvConfig(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile loads configuration from a YAML file with STRICT parsing.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return parseFile(data)
}

func parseFile(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingDocument
	}
	return &fileCfg, nil
}

func mergeFileConfig(dst *AppConfig, src *FileConfig) error {
	setString(&dst.LogLevel, src.LogLevel)

	cam := src.Camera
	if cam.FPS != nil {
		dst.Camera.FPS = *cam.FPS
	}
	setString(&dst.Camera.PreviewPath, cam.PreviewPath)
	setString(&dst.Camera.StatusPath, cam.StatusPath)
	setString(&dst.Camera.FIFOPath, cam.FIFOPath)
	setString(&dst.Camera.MediaDir, cam.MediaDir)
	if err := setDuration(&dst.Camera.StatusPollInterval, "camera.statusPollInterval", cam.StatusPollInterval); err != nil {
		return err
	}
	if err := setDuration(&dst.Camera.CommandTimeout, "camera.commandTimeout", cam.CommandTimeout); err != nil {
		return err
	}
	if cam.TransientSuffixes != nil {
		dst.Camera.TransientSuffixes = append([]string(nil), cam.TransientSuffixes...)
	}

	api := src.API
	setString(&dst.API.ListenAddr, api.ListenAddr)
	if err := setDuration(&dst.API.OperationTimeout, "api.operationTimeout", api.OperationTimeout); err != nil {
		return err
	}
	if api.RateLimit != nil {
		dst.API.RateLimit = *api.RateLimit
	}
	if api.PreviewMaxFPS != nil {
		dst.API.PreviewMaxFPS = *api.PreviewMaxFPS
	}

	if src.Metrics.ListenAddr != nil {
		dst.Metrics.ListenAddr = *src.Metrics.ListenAddr
	}
	if src.Journal.Path != nil {
		dst.Journal.Path = *src.Journal.Path
	}

	tel := src.Telemetry
	if tel.Enabled != nil {
		dst.Telemetry.Enabled = *tel.Enabled
	}
	setString(&dst.Telemetry.ExporterType, tel.ExporterType)
	setString(&dst.Telemetry.Endpoint, tel.Endpoint)
	setString(&dst.Telemetry.Environment, tel.Environment)
	if tel.SamplingRate != nil {
		dst.Telemetry.SamplingRate = *tel.SamplingRate
	}
	return nil
}

func mergeEnvConfig(cfg *AppConfig) {
	cfg.LogLevel = ParseString(EnvLogLevel, cfg.LogLevel)

	cam := &cfg.Camera
	cam.FPS = ParseInt(EnvFPS, cam.FPS)
	cam.PreviewPath = ParseString(EnvPreviewPath, cam.PreviewPath)
	cam.StatusPath = ParseString(EnvStatusPath, cam.StatusPath)
	cam.FIFOPath = ParseString(EnvFIFOPath, cam.FIFOPath)
	cam.MediaDir = ParseString(EnvMediaDir, cam.MediaDir)
	cam.StatusPollInterval = ParseDuration(EnvStatusPoll, cam.StatusPollInterval)
	cam.CommandTimeout = ParseDuration(EnvCommandTimeout, cam.CommandTimeout)
	cam.TransientSuffixes = ParseList(EnvTransientSuffixes, cam.TransientSuffixes)

	api := &cfg.API
	api.ListenAddr = ParseString(EnvListen, api.ListenAddr)
	api.OperationTimeout = ParseDuration(EnvOperationTimeout, api.OperationTimeout)
	api.RateLimit = ParseInt(EnvRateLimit, api.RateLimit)
	api.PreviewMaxFPS = ParseInt(EnvPreviewMaxFPS, api.PreviewMaxFPS)

	// An explicitly empty value disables these listeners, so they bypass ParseString.
	if v, ok := os.LookupEnv(EnvMetricsListen); ok {
		cfg.Metrics.ListenAddr = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvJournalPath); ok {
		cfg.Journal.Path = strings.TrimSpace(v)
	}

	tel := &cfg.Telemetry
	tel.Enabled = ParseBool(EnvOTelEnabled, tel.Enabled)
	tel.ExporterType = ParseString(EnvOTelExporter, tel.ExporterType)
	tel.Endpoint = ParseString(EnvOTelEndpoint, tel.Endpoint)
	tel.Environment = ParseString(EnvOTelEnvironment, tel.Environment)
	tel.SamplingRate = ParseFloat(EnvOTelSamplingRate, tel.SamplingRate)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, field, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, v, err)
	}
	*dst = d
	return nil
}
