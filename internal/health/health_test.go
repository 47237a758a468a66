// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/callvault/internal/config"
)

type mockChecker struct {
	name   string
	status Status
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(context.Context) CheckResult { return CheckResult{Status: m.status} }

type fakeProber struct {
	ok  bool
	err error
}

func (f fakeProber) Exists(context.Context) (bool, error) { return f.ok, f.err }

func TestManager_Health(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "db", status: StatusHealthy})
	m.RegisterChecker(&mockChecker{name: "cache", status: StatusDegraded})

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "v1.0.0", resp.Version)
	assert.Nil(t, resp.Checks)

	resp = m.Health(context.Background(), true)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Len(t, resp.Checks, 2)
}

func TestManager_Ready(t *testing.T) {
	tests := []struct {
		name      string
		checkers  []Checker
		wantReady bool
		want      Status
	}{
		{name: "no checkers", wantReady: true, want: StatusHealthy},
		{name: "degraded is ready", checkers: []Checker{&mockChecker{"a", StatusHealthy}, &mockChecker{"b", StatusDegraded}}, wantReady: true, want: StatusDegraded},
		{name: "unhealthy wins", checkers: []Checker{&mockChecker{"a", StatusUnhealthy}, &mockChecker{"b", StatusDegraded}}, wantReady: false, want: StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("test")
			for _, c := range tt.checkers {
				m.RegisterChecker(c)
			}
			resp := m.Ready(context.Background())
			assert.Equal(t, tt.wantReady, resp.Ready)
			assert.Equal(t, tt.want, resp.Status)
		})
	}
}

func TestServeReady_StatusCodes(t *testing.T) {
	m := NewManager("test")
	m.RegisterChecker(NewObjectStoreChecker(fakeProber{ok: false}))

	rec := httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Ready)
	assert.Equal(t, "container not found", body.Checks["object_store"].Message)

	rec = httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "liveness stays 200")
}

func TestCheckers(t *testing.T) {
	boom := errors.New("boom")
	ctx := context.Background()

	assert.Equal(t, StatusHealthy, NewObjectStoreChecker(fakeProber{ok: true}).Check(ctx).Status)
	res := NewObjectStoreChecker(fakeProber{err: boom}).Check(ctx)
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.Equal(t, "boom", res.Error)

	assert.Equal(t, StatusHealthy, NewPingChecker("db", func(context.Context) error { return nil }).Check(ctx).Status)
	assert.Equal(t, StatusUnhealthy, NewPingChecker("db", func(context.Context) error { return boom }).Check(ctx).Status)
	assert.Equal(t, StatusDegraded, NewOptionalPingChecker("redis", func(context.Context) error { return boom }).Check(ctx).Status)
	assert.Equal(t, StatusHealthy, NewPingChecker("none", nil).Check(ctx).Status)
}

func TestPerformStartupChecks(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Database.DSN = filepath.Join(dir, "db", "callvault.db")
	cfg.ObjectStore.FS.Root = filepath.Join(dir, "objects")
	cfg.Transcode.FFmpegBin = "definitely-not-ffmpeg"

	require.NoError(t, PerformStartupChecks(context.Background(), cfg))
	assert.DirExists(t, filepath.Join(dir, "db"))
	assert.DirExists(t, filepath.Join(dir, "objects"))

	cfg.Server.Listen = "no-port"
	assert.Error(t, PerformStartupChecks(context.Background(), cfg))
}
