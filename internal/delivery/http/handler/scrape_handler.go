package handler

import (
	"context"
	"errors"

	"ats-scout/internal/delivery/http/dto"
	"ats-scout/internal/delivery/http/middleware"
	"ats-scout/internal/pkg/response"
	"ats-scout/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type PostingFetcher interface {
	Scrape(ctx context.Context, url string) (usecase.PostingContent, error)
}

type ScrapeHandler struct {
	uc PostingFetcher
}

func NewScrapeHandler(uc PostingFetcher) *ScrapeHandler {
	return &ScrapeHandler{uc: uc}
}

func (h *ScrapeHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/scrape", h.HandleScrape)
}

func (h *ScrapeHandler) HandleScrape(c fiber.Ctx) error {
	var req dto.ScrapeRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
		}
	}

	out, err := h.uc.Scrape(c.Context(), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidInput):
			return middleware.NewAppError(fiber.StatusBadRequest, "URL is required", nil, err)
		case errors.Is(err, usecase.ErrUpstream):
			return middleware.NewAppError(fiber.StatusBadGateway, "Scrape failed", nil, err)
		default:
			return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
		}
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.ScrapeResponse{Markdown: out.Markdown, Text: out.Text})
}
