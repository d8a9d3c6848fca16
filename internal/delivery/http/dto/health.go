package dto

import (
	"time"

	"ats-scout/internal/search"
)

type HealthResponse struct {
	Status          string    `json:"status"`
	App             string    `json:"app"`
	Environment     string    `json:"environment"`
	RedisHealthy    bool      `json:"redis_healthy"`
	DatabaseEnabled bool      `json:"database_enabled"`
	DatabaseHealthy bool      `json:"database_healthy"`
	ServerTime      time.Time `json:"server_time"`
}

type CatalogResponse struct {
	Technologies []search.Entry `json:"technologies,omitempty"`
	Levels       []search.Entry `json:"levels,omitempty"`
}
