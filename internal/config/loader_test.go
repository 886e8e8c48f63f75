// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader("", "v1.2.3").Load()
	require.NoError(t, err)

	want := Defaults()
	want.Version = "v1.2.3"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{".h264", ".part", ".tmp", "~"}, cfg.Camera.TransientSuffixes)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, "picam.yaml", `
logLevel: debug
camera:
  fps: 10
  fifoPath: /tmp/FIFO
  statusPollInterval: "0"
  commandTimeout: 2s
  transientSuffixes: [".h264"]
api:
  listenAddr: 127.0.0.1:8081
  rateLimit: 0
metrics:
  listenAddr: ""
journal:
  path: ""
telemetry:
  enabled: true
  exporter: http
  endpoint: collector:4318
  samplingRate: 0.25
`)

	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 10, cfg.Camera.FPS)
	assert.Equal(t, "/tmp/FIFO", cfg.Camera.FIFOPath)
	assert.Equal(t, "/dev/shm/mjpeg/cam.jpg", cfg.Camera.PreviewPath)
	assert.Equal(t, time.Duration(0), cfg.Camera.StatusPollInterval)
	assert.Equal(t, 2*time.Second, cfg.Camera.CommandTimeout)
	assert.Equal(t, []string{".h264"}, cfg.Camera.TransientSuffixes)
	assert.Equal(t, "127.0.0.1:8081", cfg.API.ListenAddr)
	assert.Equal(t, 0, cfg.API.RateLimit)
	assert.Empty(t, cfg.Metrics.ListenAddr)
	assert.Empty(t, cfg.Journal.Path)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "http", cfg.Telemetry.ExporterType)
	assert.Equal(t, "collector:4318", cfg.Telemetry.Endpoint)
	assert.InDelta(t, 0.25, cfg.Telemetry.SamplingRate, 1e-9)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "picam.yml", `
camera:
  fps: 10
api:
  operationTimeout: 30s
`)
	t.Setenv(EnvFPS, "20")
	t.Setenv(EnvOperationTimeout, "90s")
	t.Setenv(EnvTransientSuffixes, ".h264, .partial ,")
	t.Setenv(EnvMetricsListen, "")
	t.Setenv(EnvOTelEnabled, "yes")

	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Camera.FPS)
	assert.Equal(t, 90*time.Second, cfg.API.OperationTimeout)
	assert.Equal(t, []string{".h264", ".partial"}, cfg.Camera.TransientSuffixes)
	assert.Empty(t, cfg.Metrics.ListenAddr)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestLoad_InvalidEnvFallsBackToLowerLayer(t *testing.T) {
	path := writeConfig(t, "picam.yaml", "camera:\n  fps: 12\n")
	t.Setenv(EnvFPS, "fast")

	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Camera.FPS)
}

func TestLoad_StrictFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr error
		wantMsg string
	}{
		{
			name:    "unknown key",
			file:    "picam.yaml",
			body:    "camera:\n  frameRate: 10\n",
			wantErr: ErrUnknownConfigField,
		},
		{
			name:    "multiple documents",
			file:    "picam.yaml",
			body:    "logLevel: info\n---\nlogLevel: debug\n",
			wantErr: ErrTrailingDocument,
		},
		{
			name:    "bad duration",
			file:    "picam.yaml",
			body:    "camera:\n  commandTimeout: soon\n",
			wantMsg: "camera.commandTimeout",
		},
		{
			name:    "wrong extension",
			file:    "picam.json",
			body:    "{}",
			wantMsg: "unsupported config format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(writeConfig(t, tt.file, tt.body), "").Load()
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := NewLoader(writeConfig(t, "picam.yaml", ""), "").Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults().Camera, cfg.Camera)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml"), "").Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Setenv(EnvFPS, "60")
	_, err := NewLoader("", "").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "camera.fps")
}

func TestCameraConfig_Device(t *testing.T) {
	cam := Defaults().Camera
	dc := cam.Device()
	require.NoError(t, dc.Validate())
	assert.Equal(t, cam.FIFOPath, dc.FIFOPath)
	assert.Equal(t, cam.TransientSuffixes, dc.TransientSuffixes)

	dc.TransientSuffixes[0] = ".changed"
	assert.Equal(t, ".h264", cam.TransientSuffixes[0])
}
