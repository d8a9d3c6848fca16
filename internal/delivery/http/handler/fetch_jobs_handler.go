package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"

	"ats-scout/internal/delivery/http/dto"
	"ats-scout/internal/delivery/http/middleware"
	"ats-scout/internal/domain/progress"
	"ats-scout/internal/pkg/logging"
	"ats-scout/internal/pkg/response"
	"ats-scout/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

const StreamPath = "/api/fetch-jobs/stream"

type ScrapeController interface {
	Start(technology, level string) (usecase.RunInfo, error)
	Status() usecase.Status
	Reset()
}

type ProgressStreamer interface {
	Open() error
	Stream(ctx context.Context, deliver func(progress.Event) error) error
}

type FetchJobsHandler struct {
	job     ScrapeController
	stream  ProgressStreamer
	logger  *logging.Logger
	baseCtx context.Context
}

// NewFetchJobsHandler streams under baseCtx; cancelling it ends open streams.
func NewFetchJobsHandler(baseCtx context.Context, job ScrapeController, stream ProgressStreamer, logger *logging.Logger) *FetchJobsHandler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FetchJobsHandler{job: job, stream: stream, logger: logger, baseCtx: baseCtx}
}

func (h *FetchJobsHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/fetch-jobs", h.HandleStart)
	r.Get("/fetch-jobs/stream", h.HandleStream)
	r.Get("/fetch-jobs/status", h.HandleStatus)
	r.Post("/fetch-jobs/reset", h.HandleReset)
}

func (h *FetchJobsHandler) HandleStart(c fiber.Ctx) error {
	var req dto.FetchJobsRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
		}
	}

	info, err := h.job.Start(req.Technology, req.Level)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrJobConflict):
			return middleware.NewAppError(fiber.StatusConflict, "Scrape already running", nil, err)
		case errors.Is(err, usecase.ErrInvalidInput):
			return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
		default:
			return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
		}
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.FetchJobsStartedResponse{
		Status:     "started",
		StreamURL:  StreamPath,
		RunID:      info.RunID.String(),
		Technology: info.Technology,
		Level:      info.Level,
	})
}

// HandleStream serves the event log as server-sent events, one "data: <json>" frame per event.
func (h *FetchJobsHandler) HandleStream(c fiber.Ctx) error {
	if err := h.stream.Open(); err != nil {
		if errors.Is(err, usecase.ErrNoActiveJob) {
			return middleware.NewAppError(fiber.StatusConflict, "No active scrape. Start one via POST /api/fetch-jobs", nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(h.baseCtx)
		defer cancel()

		err := h.stream.Stream(ctx, func(e progress.Event) error {
			return writeSSE(w, e)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			h.logger.Debug("sse stream closed", "err", err)
		}
	})
}

func writeSSE(w *bufio.Writer, e progress.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := w.WriteString("data: "); err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	if _, err := w.WriteString("\n\n"); err != nil {
		return err
	}
	return w.Flush()
}

func (h *FetchJobsHandler) HandleStatus(c fiber.Ctx) error {
	st := h.job.Status()
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.FetchJobsStatusResponse{
		Running:     st.Running,
		Completed:   st.Completed,
		EventsCount: st.EventCount,
		RunID:       st.RunID,
		Technology:  st.Technology,
		Level:       st.Level,
		StartedAt:   st.StartedAt,
		FinishedAt:  st.FinishedAt,
	})
}

func (h *FetchJobsHandler) HandleReset(c fiber.Ctx) error {
	h.job.Reset()
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.FetchJobsResetResponse{Status: "reset"})
}
