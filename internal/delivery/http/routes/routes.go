package routes

import (
	"ats-scout/internal/delivery/http/handler"
	"ats-scout/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	Health    *handler.HealthHandler
	Catalog   *handler.CatalogHandler
	Jobs      *handler.JobsHandler
	Scrape    *handler.ScrapeHandler
	FetchJobs *handler.FetchJobsHandler
	WS        *ws.Handler
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil || r == nil {
		return
	}

	r.Health.RegisterRoutes(app)
	r.registerAPI(app.Group("/api"))
	r.registerWS(app)
}

func (r *Registry) registerAPI(api fiber.Router) {
	r.Catalog.RegisterRoutes(api)
	r.Jobs.RegisterRoutes(api)
	r.Scrape.RegisterRoutes(api)
	r.FetchJobs.RegisterRoutes(api)
	if r.WS != nil {
		api.Get("/fetch-jobs/ws", r.WS.HandleProgressWS)
	}
}

func (r *Registry) registerWS(app *fiber.App) {
	if r.WS == nil {
		return
	}
	app.Get("/ws/jobs", r.WS.HandleJobsWS)
}
