package app

import (
	"context"
	"fmt"
	"strings"

	"ats-scout/internal/config"
	"ats-scout/internal/delivery/http/handler"
	"ats-scout/internal/delivery/http/middleware"
	"ats-scout/internal/delivery/http/routes"
	"ats-scout/internal/pkg/logging"
	"ats-scout/internal/scheduler"
	"ats-scout/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
	Scheduler *scheduler.Scheduler
}

// New builds the fiber app over an already wired container.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c.Logger)
	newRegistry(c).Register(f)

	return &App{Fiber: f, Container: c}
}

// Bootstrap wires the container, routes and the optional schedule. ctx bounds
// background scrape work and is expected to live as long as the process.
func Bootstrap(ctx context.Context, cfg config.Config, log *logging.Logger) (*App, func() error, error) {
	c, err := NewContainer(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	app := New(c)

	if cfg.Schedule.Enabled() {
		s, err := scheduler.New(cfg.Schedule.Spec, cfg.Schedule.Technology, cfg.Schedule.Level,
			c.ScrapeJob, c.Redis, c.Logger.With("component", "scheduler"))
		if err != nil {
			_ = c.Close()
			return nil, nil, fmt.Errorf("scheduler: %w", err)
		}
		app.Scheduler = s
	}

	cleanup := func() error {
		if app.Scheduler != nil {
			app.Scheduler.Stop()
		}
		return c.Close()
	}
	return app, cleanup, nil
}

func newRegistry(c *Container) *routes.Registry {
	var history handler.RunHistory
	if c.Results != nil {
		history = c.Results
	}
	var db handler.Pinger
	if c.DB != nil {
		db = c.DB
	}

	return &routes.Registry{
		Health:    handler.NewHealthHandler(c.Config.App.AppName, c.Config.App.Environment, c.Redis, db),
		Catalog:   handler.NewCatalogHandler(),
		Jobs:      handler.NewJobsHandler(c.JobListing, history),
		Scrape:    handler.NewScrapeHandler(c.Postings),
		FetchJobs: handler.NewFetchJobsHandler(c.ctx, c.ScrapeJob, c.Stream, c.Logger.With("component", "sse")),
		WS:        ws.NewHandler(c.Hub, c.Stream, c.Logger.With("component", "ws")),
	}
}

func registerGlobalMiddleware(app *fiber.App, log *logging.Logger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(log).Middleware())
	app.Use(middleware.NewErrorMiddleware(log).Middleware())
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
