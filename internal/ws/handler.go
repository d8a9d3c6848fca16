package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ats-scout/internal/domain/progress"
	"ats-scout/internal/pkg/logging"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gorilla/websocket"
)

// ProgressStreamer is the replay side of a scrape job.
type ProgressStreamer interface {
	Open() error
	Stream(ctx context.Context, deliver func(progress.Event) error) error
}

type Handler struct {
	hub      *Hub
	progress ProgressStreamer
	logger   *logging.Logger
}

func NewHandler(hub *Hub, streamer ProgressStreamer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{hub: hub, progress: streamer, logger: logger}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleJobsWS subscribes the connection to jobs_updated broadcasts.
func (h *Handler) HandleJobsWS(c fiber.Ctx) error {
	if h == nil || h.hub == nil {
		return fiber.ErrServiceUnavailable
	}

	fiberHandler := adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("ws upgrade failed", "err", err)
			return
		}

		client := NewClient(h.hub, conn)
		h.hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	})

	return fiberHandler(c)
}

// HandleProgressWS replays the current scrape's events, one JSON text frame each, then
// closes the connection.
func (h *Handler) HandleProgressWS(c fiber.Ctx) error {
	if h == nil || h.progress == nil {
		return fiber.ErrServiceUnavailable
	}
	if err := h.progress.Open(); err != nil {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}

	fiberHandler := adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("ws upgrade failed", "err", err)
			return
		}
		go h.streamProgress(conn)
	})

	return fiberHandler(c)
}

func (h *Handler) streamProgress(conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer func() { _ = conn.Close() }()

	// Reading is the only way to notice the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	err := h.progress.Stream(ctx, func(e progress.Event) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(e)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		h.logger.Debug("progress ws closed", "err", err)
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
