package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorekeeper/config"
	"scorekeeper/core"
)

func writeConfig(t *testing.T, content string) ConfigPath {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scorekeeper.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return ConfigPath(path)
}

const testConfig = `
environment: testing
server:
  address: "127.0.0.1:0"
  shutdown_timeout: 2s
leaderboard:
  dispatch_mode: sync
logging:
  level: error
`

func TestBuildAppServesAPI(t *testing.T) {
	app, cleanup, err := BuildApp(context.Background(), writeConfig(t, testConfig))
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, config.EnvTesting, app.Config.Environment)
	assert.Nil(t, app.Metrics)

	srv := httptest.NewServer(app.Handler)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/score", "application/json", strings.NewReader(`{"name":"Alice","score":42}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	st, err := app.Service.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalGames)
}

func TestProductionForbidsClear(t *testing.T) {
	t.Setenv("SCOREKEEPER_ENV", "production")
	app, cleanup, err := BuildApp(context.Background(), writeConfig(t, testConfig))
	require.NoError(t, err)
	defer cleanup()

	assert.False(t, app.Service.ClearAllowed())
	assert.ErrorIs(t, app.Service.Clear(context.Background()), core.ErrClearForbidden)
}

func TestBuildAppRejectsInvalidConfig(t *testing.T) {
	_, _, err := BuildApp(context.Background(), writeConfig(t, "leaderboard:\n  dispatch_mode: later\n"))
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	app, cleanup, err := BuildApp(context.Background(), writeConfig(t, testConfig))
	require.NoError(t, err)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, app) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestMetricsServerExposesLeaderboardSeries(t *testing.T) {
	cfg := writeConfig(t, testConfig+`
metrics:
  enabled: true
  address: "127.0.0.1:0"
  path: /metrics
  collect_system: false
`)
	app, cleanup, err := BuildApp(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()
	require.NotNil(t, app.Metrics)

	_, err = app.Service.Submit(context.Background(), core.Submission{Name: "Alice", Score: 7})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.Metrics.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "scorekeeper_scores_submitted_total 1")
	assert.Contains(t, body, "scorekeeper_leaderboard_entries 1")
}

func TestRedisRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := writeConfig(t, testConfig+`
security:
  enable_rate_limit: true
  rate_limit:
    requests_per_minute: 2
    burst_size: 2
    backend: redis
redis:
  addr: "`+mr.Addr()+`"
  key_prefix: test
`)
	app, cleanup, err := BuildApp(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.NotEmpty(t, mr.Keys())
}

func TestRedisRateLimiterUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := writeConfig(t, testConfig+`
security:
  enable_rate_limit: true
  rate_limit:
    requests_per_minute: 2
    burst_size: 2
    backend: redis
redis:
  addr: "`+addr+`"
  dial_timeout: 200ms
`)
	_, _, err := BuildApp(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}

func TestConfigCommandRedactsSecrets(t *testing.T) {
	t.Setenv("SCOREKEEPER_REDIS_PASSWORD", "hunter2")

	var out bytes.Buffer
	app := newCLI()
	app.Writer = &out
	app.ErrWriter = io.Discard

	require.NoError(t, app.Run([]string{"scorekeeper", "--config", string(writeConfig(t, testConfig)), "config"}))
	assert.Contains(t, out.String(), `"environment": "testing"`)
	assert.Contains(t, out.String(), "[REDACTED]")
	assert.NotContains(t, out.String(), "hunter2")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "WARN", parseLogLevel("warn").String())
	assert.Equal(t, "INFO", parseLogLevel("nonsense").String())
}
