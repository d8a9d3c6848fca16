package handler

import (
	"ats-scout/internal/delivery/http/dto"
	"ats-scout/internal/pkg/response"
	"ats-scout/internal/search"

	"github.com/gofiber/fiber/v3"
)

type CatalogHandler struct{}

func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

func (h *CatalogHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/technologies", h.ListTechnologies)
	r.Get("/levels", h.ListLevels)
}

func (h *CatalogHandler) ListTechnologies(c fiber.Ctx) error {
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.CatalogResponse{Technologies: search.Technologies()})
}

func (h *CatalogHandler) ListLevels(c fiber.Ctx) error {
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.CatalogResponse{Levels: search.Levels()})
}
