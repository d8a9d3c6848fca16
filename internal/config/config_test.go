package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"SERPER_API_KEY", "SERPAPI_API_KEY_1", "APP_NAME", "APP_ENV", "HTTP_PORT", "LOG_LEVEL", "OUTPUT_DIR",
	"SCRAPE_SCHEDULE", "SCHEDULE_TECHNOLOGY", "SCHEDULE_LEVEL",
	"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_TTL",
	"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_SSL_MODE",
	"DB_CONNECT_TIMEOUT", "DB_POOL_MAX_CONNS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errMissingRequiredEnv))
	assert.Contains(t, err.Error(), "SERPER_API_KEY")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERPER_API_KEY", " key ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "key", cfg.Serper.APIKey)
	assert.Equal(t, "ats-scout", cfg.App.AppName)
	assert.Equal(t, "8000", cfg.App.HTTPPort)
	assert.Equal(t, ".", cfg.App.OutputDir)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.False(t, cfg.Schedule.Enabled())
	assert.Equal(t, "php", cfg.Schedule.Technology)
	assert.Equal(t, "any", cfg.Schedule.Level)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, 600*time.Second, cfg.Redis.TTL)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, int32(4), cfg.Database.PoolMaxConns)
}

func TestLoad_LegacyKeyAndOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERPAPI_API_KEY_1", "legacy")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("SCRAPE_SCHEDULE", "0 9 * * 1")
	t.Setenv("REDIS_TTL", "30")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_CONNECT_TIMEOUT", "12")
	t.Setenv("DB_POOL_MAX_CONNS", "9")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.Serper.APIKey)
	assert.Equal(t, "9000", cfg.App.HTTPPort)
	assert.True(t, cfg.Schedule.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "5432", cfg.Database.DBPort)
	assert.Equal(t, 12*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, int32(9), cfg.Database.PoolMaxConns)
}

func TestLoad_BadTTLFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERPER_API_KEY", "k")
	t.Setenv("REDIS_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 600*time.Second, cfg.Redis.TTL)
}
