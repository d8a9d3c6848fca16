package app

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"ats-scout/internal/config"
	"ats-scout/internal/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenAddr(t *testing.T) {
	addr, err := ListenAddr("8080")
	require.NoError(t, err)
	assert.Equal(t, ":8080", addr)

	addr, err = ListenAddr(" :9000 ")
	require.NoError(t, err)
	assert.Equal(t, ":9000", addr)

	_, err = ListenAddr("  ")
	assert.Error(t, err)
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		App: config.AppConfig{
			AppName:     "ats-scout",
			Environment: "test",
			HTTPPort:    "0",
			OutputDir:   t.TempDir(),
		},
		Serper: config.SerperConfig{APIKey: "test-key"},
		Redis:  config.RedisConfig{Host: "127.0.0.1", Port: "1"},
	}
}

func TestBootstrapRoutes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, cleanup, err := Bootstrap(ctx, testConfig(t), logging.NewNop())
	require.NoError(t, err)
	defer func() { _ = cleanup() }()
	assert.Nil(t, app.Scheduler)

	cases := []struct {
		method string
		path   string
		status int
	}{
		{"GET", "/health", 200},
		{"GET", "/api/technologies", 200},
		{"GET", "/api/levels", 200},
		{"GET", "/api/jobs", 404},
		{"GET", "/api/runs", 404},
		{"GET", "/api/fetch-jobs/status", 200},
		{"GET", "/api/fetch-jobs/stream", 409},
		{"GET", "/nope", 404},
	}
	for _, tc := range cases {
		resp, err := app.Fiber.Test(httptest.NewRequest(tc.method, tc.path, nil))
		require.NoError(t, err, tc.path)
		assert.Equal(t, tc.status, resp.StatusCode, tc.path)
		_ = resp.Body.Close()
	}
}

func TestBootstrapStatusEnvelope(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, cleanup, err := Bootstrap(ctx, testConfig(t), logging.NewNop())
	require.NoError(t, err)
	defer func() { _ = cleanup() }()

	resp, err := app.Fiber.Test(httptest.NewRequest("GET", "/api/fetch-jobs/status", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Status int `json:"status"`
		Data   struct {
			Running bool `json:"running"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 200, body.Status)
	assert.False(t, body.Data.Running)
}

func TestBootstrapRejectsBadSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedule = config.ScheduleConfig{Spec: "not a cron spec"}

	_, _, err := Bootstrap(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err)
}
