package handler

import (
	"context"
	"errors"
	"strconv"

	"ats-scout/internal/delivery/http/dto"
	"ats-scout/internal/delivery/http/middleware"
	"ats-scout/internal/domain/job"
	"ats-scout/internal/infrastructure/storage"
	"ats-scout/internal/pkg/response"
	"ats-scout/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type JobLister interface {
	List(ctx context.Context, origin, query string) (usecase.ListingPage, error)
	Origins(ctx context.Context) ([]job.OriginCount, error)
}

type RunHistory interface {
	RecentRuns(ctx context.Context, limit int) ([]job.ScrapeRun, error)
}

type JobsHandler struct {
	uc      JobLister
	history RunHistory
}

// NewJobsHandler accepts a nil history when no database is configured.
func NewJobsHandler(uc JobLister, history RunHistory) *JobsHandler {
	return &JobsHandler{uc: uc, history: history}
}

func (h *JobsHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/jobs", h.HandleListJobs)
	r.Get("/origins", h.HandleListOrigins)
	r.Get("/runs", h.HandleListRuns)
}

func (h *JobsHandler) HandleListJobs(c fiber.Ctx) error {
	page, err := h.uc.List(c.Context(), c.Query("origin"), c.Query("search"))
	if err != nil {
		return mapListingError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.JobsResponse{
		Jobs:  page.Jobs,
		Total: page.Total,
		File:  page.File,
	})
}

func (h *JobsHandler) HandleListOrigins(c fiber.Ctx) error {
	origins, err := h.uc.Origins(c.Context())
	if err != nil {
		return mapListingError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.OriginsResponse{Origins: origins})
}

func (h *JobsHandler) HandleListRuns(c fiber.Ctx) error {
	if h.history == nil {
		return middleware.NewAppError(fiber.StatusNotFound, "Run history requires a database", nil, nil)
	}
	limit := 20
	if s := c.Query("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			return middleware.NewAppError(fiber.StatusBadRequest, "limit must be a positive integer", nil, err)
		}
		limit = v
	}
	runs, err := h.history.RecentRuns(c.Context(), limit)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.RunsResponse{Runs: runs})
}

func mapListingError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNoCSV):
		return middleware.NewAppError(fiber.StatusNotFound, "No CSV file found", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
