package middleware

import (
	"time"

	"ats-scout/internal/pkg/logging"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type AccessLogMiddleware struct {
	logger *logging.Logger
}

func NewAccessLogMiddleware(logger *logging.Logger) *AccessLogMiddleware {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &AccessLogMiddleware{logger: logger}
}

// Middleware tags each request with an X-Request-ID and logs it once it is served.
// Streaming responses are logged when the handler returns, before the body is written.
func (m *AccessLogMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		rid := c.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("X-Request-ID", rid)

		err := c.Next()

		m.logger.Info("http access",
			"rid", rid,
			"ip", c.IP(),
			"method", c.Method(),
			"path", c.OriginalURL(),
			"status", c.Response().StatusCode(),
			"latency", time.Since(start),
			"req_bytes", c.Request().Header.ContentLength(),
			"ua", c.Get("User-Agent"),
		)

		return err
	}
}
