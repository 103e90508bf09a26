package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltyorg/panelcore/internal/config"
	"github.com/saltyorg/panelcore/internal/core"
	"github.com/saltyorg/panelcore/internal/database"
	"github.com/saltyorg/panelcore/internal/logging"
)

func newTestServer(t *testing.T, dbOpts database.Options, opts Options) *Server {
	t.Helper()
	errLog := logging.NewSQLErrorLog(t.TempDir())
	t.Cleanup(func() { _ = errLog.Close() })

	dbOpts.ErrorLog = errLog
	manager := database.NewManager(dbOpts)
	srv, err := NewServer(manager, core.NewService(core.Options{Version: "dev"}), opts)
	require.NoError(t, err)
	return srv
}

func sqliteOptions(t *testing.T) database.Options {
	return database.Options{Source: config.StaticSource{Userdata: &config.Userdata{SQL: config.SQLConfig{
		Driver: config.DriverSQLite,
		DB:     filepath.Join(t.TempDir(), "panel.db"),
	}}}}
}

// brokenOptions makes every connect attempt fail fatally
func brokenOptions(t *testing.T) database.Options {
	opts := sqliteOptions(t)
	opts.Drivers = func() []string { return nil }
	return opts
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCoreRoutes(t *testing.T) {
	srv := newTestServer(t, sqliteOptions(t), Options{})
	h := srv.Handler()

	rec := get(t, h, "/api/core/version")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"version":"dev"}`, rec.Body.String())

	rec = get(t, h, "/api/core/apiversion")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"api_version":"`+core.APIVersion+`"}`, rec.Body.String())

	rec = get(t, h, "/api/core/update")
	require.Equal(t, http.StatusOK, rec.Code)
	var status core.UpdateStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Available)

	rec = get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSystemRouteUsesRequestDatabase(t *testing.T) {
	srv := newTestServer(t, sqliteOptions(t), Options{})

	rec := get(t, srv.Handler(), "/api/core/system")
	require.Equal(t, http.StatusOK, rec.Code)

	var info core.SystemInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, config.DriverSQLite, info.DBDriver)
	assert.NotEmpty(t, info.DBVersion)
}

func TestSystemRouteRendersErrorPage(t *testing.T) {
	srv := newTestServer(t, brokenOptions(t), Options{})

	rec := get(t, srv.Handler(), "/api/core/system")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "database error occurred")
	assert.Contains(t, rec.Body.String(), "database driver is not available")
	assert.Contains(t, rec.Body.String(), "<pre>")
	assert.Contains(t, rec.Body.String(), "goroutine")
}

func TestAllowSubnetRejectsOutsiders(t *testing.T) {
	_, allowed, err := net.ParseCIDR("10.0.0.0/8")
	require.NoError(t, err)
	srv := newTestServer(t, sqliteOptions(t), Options{AllowedNet: allowed})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "192.168.1.10:5555"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStartStopsOnCancel(t *testing.T) {
	srv := newTestServer(t, sqliteOptions(t), Options{Bind: "127.0.0.1", Port: 0})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	cancel()

	assert.NoError(t, <-done)
}
