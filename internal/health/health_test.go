// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/picam/internal/device"
)

type mockChecker struct {
	name   string
	status Status
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(_ context.Context) CheckResult {
	return CheckResult{Status: m.status}
}

func TestManager_Health(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "healthy", status: StatusHealthy})
	m.RegisterChecker(&mockChecker{name: "degraded", status: StatusDegraded})

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "v1.0.0", resp.Version)
	assert.GreaterOrEqual(t, resp.Uptime, int64(0))
	assert.Nil(t, resp.Checks)

	resp = m.Health(context.Background(), true)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Len(t, resp.Checks, 2)
}

func TestManager_Ready(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []Status
		wantReady bool
		want      Status
	}{
		{name: "no checkers", wantReady: true, want: StatusHealthy},
		{name: "all healthy", statuses: []Status{StatusHealthy, StatusHealthy}, wantReady: true, want: StatusHealthy},
		{name: "degraded stays ready", statuses: []Status{StatusHealthy, StatusDegraded}, wantReady: true, want: StatusDegraded},
		{name: "unhealthy wins", statuses: []Status{StatusUnhealthy, StatusDegraded}, wantReady: false, want: StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("v1")
			for i, st := range tt.statuses {
				m.RegisterChecker(&mockChecker{name: string(rune('a' + i)), status: st})
			}
			resp := m.Ready(context.Background())
			assert.Equal(t, tt.wantReady, resp.Ready)
			assert.Equal(t, tt.want, resp.Status)
		})
	}
}

func TestManager_ServeHealth(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "camera", status: StatusUnhealthy})

	rec := httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz?verbose=true", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Contains(t, resp.Checks, "camera")
}

func TestManager_ServeReady(t *testing.T) {
	m := NewManager("v1.0.0")
	checker := &mockChecker{name: "camera", status: StatusUnhealthy}
	m.RegisterChecker(checker)

	rec := httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	checker.status = StatusHealthy
	rec = httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ReadinessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Ready)
}

func TestCameraChecker(t *testing.T) {
	tests := []struct {
		status device.Status
		want   Status
	}{
		{device.StatusUnknown, StatusUnhealthy},
		{device.StatusHalted, StatusDegraded},
		{device.Status("warming"), StatusDegraded},
		{device.StatusReady, StatusHealthy},
		{device.StatusVideo, StatusHealthy},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			c := NewCameraChecker(func() device.Status { return tt.status })
			assert.Equal(t, "camera", c.Name())
			assert.Equal(t, tt.want, c.Check(context.Background()).Status)
		})
	}
}

func TestFileChecker(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "status_mjpeg.txt")
	require.NoError(t, os.WriteFile(file, []byte("ready"), 0o600))

	assert.Equal(t, StatusHealthy, NewFileChecker("status_file", file).Check(context.Background()).Status)

	missing := NewFileChecker("status_file", filepath.Join(dir, "absent")).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, missing.Status)
	assert.Equal(t, "file not found", missing.Error)

	isDir := NewFileChecker("status_file", dir).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, isDir.Status)
}

func TestPingChecker(t *testing.T) {
	ok := NewPingChecker("journal", time.Second, func(context.Context) error { return nil })
	assert.Equal(t, StatusHealthy, ok.Check(context.Background()).Status)

	failing := NewPingChecker("journal", time.Second, func(context.Context) error { return errors.New("database is locked") })
	res := failing.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.Equal(t, "database is locked", res.Error)

	slow := NewPingChecker("journal", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.Equal(t, StatusUnhealthy, slow.Check(context.Background()).Status)
}
