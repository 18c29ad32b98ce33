package cmd

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/asrsmcp/internal/config"
	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
	"github.com/Aman-CERP/asrsmcp/internal/incident"
	"github.com/Aman-CERP/asrsmcp/internal/query"
	"github.com/Aman-CERP/asrsmcp/internal/telemetry"
)

func testEngine(t *testing.T) *query.Engine {
	t.Helper()
	dir := t.TempDir()
	store, err := incident.LoadFile(writeCorpus(t, dir))
	require.NoError(t, err)
	return query.New(store)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildServer_PersistsTelemetry(t *testing.T) {
	// Given: telemetry enabled with a database path
	cfg := config.NewConfig()
	cfg.Telemetry.DBPath = filepath.Join(t.TempDir(), "nested", "telemetry.db")
	cfg.Telemetry.FlushInterval = 0

	stack, err := buildServer(cfg, testEngine(t), quietLogger())
	require.NoError(t, err)
	require.NotNil(t, stack.metrics)
	assert.Nil(t, stack.prom)

	// When: a call is made and the stack shuts down
	resp := stack.server.CallTool(context.Background(), "get_incident_details", map[string]any{"id": "2184152"})
	require.False(t, resp.IsError, resp.Text)
	require.NoError(t, stack.Close())

	// Then: the final flush reached the database
	store, err := telemetry.OpenSQLiteMetricsStore(cfg.Telemetry.DBPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	counts, err := store.GetCallCounts("0000-01-01", "9999-12-31")
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[telemetry.CallKey{Tool: "get_incident_details", Outcome: telemetry.OutcomeOK}])
}

func TestBuildServer_TelemetryDisabled(t *testing.T) {
	cfg := config.NewConfig()
	disabled := false
	cfg.Telemetry.Enabled = &disabled

	stack, err := buildServer(cfg, testEngine(t), quietLogger())
	require.NoError(t, err)
	defer func() { _ = stack.Close() }()

	assert.Nil(t, stack.metrics)
	assert.Empty(t, stack.closers)

	// Calls still work without any recorder
	resp := stack.server.CallTool(context.Background(), "get_hfacs_taxonomy", nil)
	assert.False(t, resp.IsError)
}

func TestBuildServer_UnusableDatabaseFallsBackToMemory(t *testing.T) {
	// Given: a database path whose parent is a regular file
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	cfg := config.NewConfig()
	cfg.Telemetry.DBPath = filepath.Join(blocker, "telemetry.db")

	// When
	stack, err := buildServer(cfg, testEngine(t), quietLogger())

	// Then: the server still starts with in-memory metrics
	require.NoError(t, err)
	defer func() { _ = stack.Close() }()
	assert.NotNil(t, stack.metrics)
	assert.Len(t, stack.closers, 1)
}

func TestBuildServer_PrometheusEndpoint(t *testing.T) {
	// Given: a metrics address
	cfg := config.NewConfig()
	cfg.Telemetry.DBPath = ""
	cfg.Server.MetricsAddr = "127.0.0.1:0"

	stack, err := buildServer(cfg, testEngine(t), quietLogger())
	require.NoError(t, err)
	defer func() { _ = stack.Close() }()
	require.NotNil(t, stack.prom)

	// When: a call is made and /metrics is scraped
	stack.server.CallTool(context.Background(), "get_hfacs_taxonomy", nil)

	srv := httptest.NewServer(stack.metricsHandler())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	// Then: the call is exported
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), `asrsmcp_tool_calls_total{outcome="ok",tool="get_hfacs_taxonomy"} 1`)
}

func TestRunServe_MissingCorpus(t *testing.T) {
	// Given: a data path that does not exist
	dir := isolateEnv(t)

	// When: serving
	_, _, err := execute(t, "serve", "--data", filepath.Join(dir, "missing.json"))

	// Then: startup fails before any transport is opened
	require.Error(t, err)
	assert.Equal(t, amerrors.ErrCodeFileNotFound, amerrors.GetCode(err))
}

func TestServeCmd_Flags(t *testing.T) {
	cmd := NewRootCmd()
	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	assert.NotNil(t, serve.Flags().Lookup("data"))
	assert.NotNil(t, serve.Flags().Lookup("metrics-addr"))
}
