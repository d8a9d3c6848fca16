package handler

import (
	"context"
	"time"

	"ats-scout/internal/delivery/http/dto"
	"ats-scout/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	app   string
	env   string
	redis Pinger
	db    Pinger
	now   func() time.Time
}

// NewHealthHandler accepts nil pingers for backends that are not configured.
func NewHealthHandler(app, env string, redis, db Pinger) *HealthHandler {
	return &HealthHandler{app: app, env: env, redis: redis, db: db, now: time.Now}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.GetHealth)
}

func (h *HealthHandler) GetHealth(c fiber.Ctx) error {
	out := dto.HealthResponse{
		Status:          "ok",
		App:             h.app,
		Environment:     h.env,
		RedisHealthy:    ping(c.Context(), h.redis),
		DatabaseEnabled: h.db != nil,
		DatabaseHealthy: ping(c.Context(), h.db),
		ServerTime:      h.now().UTC(),
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func ping(ctx context.Context, p Pinger) bool {
	if p == nil {
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.Ping(pingCtx) == nil
}
