package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App      AppConfig
	Serper   SerperConfig
	Schedule ScheduleConfig
	Redis    RedisConfig
	Database DatabaseConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
	LogLevel    string
	OutputDir   string
}

type SerperConfig struct {
	APIKey string
}

type ScheduleConfig struct {
	Spec       string
	Technology string
	Level      string
}

func (s ScheduleConfig) Enabled() bool { return s.Spec != "" }

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	TTL      time.Duration
}

func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout time.Duration
	PoolMaxConns   int32
}

// Enabled reports whether a Postgres result store is configured.
func (d DatabaseConfig) Enabled() bool { return d.DBHost != "" }

var errMissingRequiredEnv = errors.New("missing required environment variables")

const defaultRedisTTL = 600 * time.Second

func Load() (Config, error) {
	cfg := Config{}

	var missing []string
	req := func(keys ...string) string {
		for _, key := range keys {
			if v := strings.TrimSpace(os.Getenv(key)); v != "" {
				return v
			}
		}
		missing = append(missing, keys[0])
		return ""
	}
	opt := func(key, def string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return def
		}
		return v
	}

	cfg.App = AppConfig{
		AppName:     opt("APP_NAME", "ats-scout"),
		Environment: opt("APP_ENV", "development"),
		HTTPPort:    opt("HTTP_PORT", "8000"),
		LogLevel:    opt("LOG_LEVEL", "info"),
		OutputDir:   opt("OUTPUT_DIR", "."),
	}

	cfg.Serper = SerperConfig{
		APIKey: req("SERPER_API_KEY", "SERPAPI_API_KEY_1"),
	}

	cfg.Schedule = ScheduleConfig{
		Spec:       opt("SCRAPE_SCHEDULE", ""),
		Technology: opt("SCHEDULE_TECHNOLOGY", "php"),
		Level:      opt("SCHEDULE_LEVEL", "any"),
	}

	cfg.Redis = RedisConfig{
		Host:     opt("REDIS_HOST", "localhost"),
		Port:     opt("REDIS_PORT", "6379"),
		Password: opt("REDIS_PASSWORD", ""),
		TTL:      secondsOr(opt("REDIS_TTL", ""), defaultRedisTTL),
	}

	cfg.Database = DatabaseConfig{
		DBHost:         opt("DB_HOST", ""),
		DBPort:         opt("DB_PORT", "5432"),
		DBName:         opt("DB_NAME", "ats_scout"),
		DBUser:         opt("DB_USER", "postgres"),
		DBPassword:     opt("DB_PASSWORD", ""),
		DBSSLMode:      opt("DB_SSL_MODE", "disable"),
		ConnectTimeout: secondsOr(opt("DB_CONNECT_TIMEOUT", ""), 5*time.Second),
		PoolMaxConns:   int32(positiveOr(opt("DB_POOL_MAX_CONNS", ""), 4)),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	return cfg, nil
}

func secondsOr(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return time.Duration(v) * time.Second
}

func positiveOr(raw string, def int) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
