package app

import (
	"context"
	"fmt"
	"time"

	"ats-scout/internal/config"
	"ats-scout/internal/database"
	"ats-scout/internal/database/migration"
	dbpostgres "ats-scout/internal/database/postgres"
	"ats-scout/internal/domain/progress"
	"ats-scout/internal/infrastructure/cache"
	"ats-scout/internal/infrastructure/serper"
	"ats-scout/internal/infrastructure/storage"
	"ats-scout/internal/pkg/logging"
	"ats-scout/internal/repository"
	"ats-scout/internal/scraper"
	"ats-scout/internal/usecase"
	"ats-scout/internal/ws"
)

// Container owns every long-lived dependency of the server.
type Container struct {
	Config config.Config
	Logger *logging.Logger

	DB      database.DB
	Redis   *cache.Redis
	Serper  *serper.Client
	Results *repository.PostgresScrapeResultRepository

	Aggregator *scraper.Aggregator
	ScrapeJob  *usecase.ScrapeJob
	Stream     *usecase.StreamReader
	Listings   *storage.ListingCache
	JobListing *usecase.JobListing
	Postings   *usecase.PostingScraper
	Hub        *ws.Hub

	ctx context.Context
}

// NewContainer connects the optional backends and wires the use cases. Scrape workers
// run under ctx.
func NewContainer(ctx context.Context, cfg config.Config, log *logging.Logger) (*Container, error) {
	if log == nil {
		log = logging.NewNop()
	}
	c := &Container{Config: cfg, Logger: log, ctx: ctx}

	if cfg.Database.Enabled() {
		connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		db, err := dbpostgres.Connect(connCtx, cfg.Database)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		migCtx, migCancel := context.WithTimeout(ctx, 2*time.Minute)
		err = migration.Runner{}.Run(migCtx, db)
		migCancel()
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		c.DB = db
		c.Results = repository.NewPostgresScrapeResultRepository(db)
	}

	c.Redis = cache.NewRedis(ctx, cfg.Redis, log.With("component", "cache"))
	c.Serper = serper.NewClient(serper.Config{APIKey: cfg.Serper.APIKey})

	c.Aggregator = NewAggregator(c.Serper, log)

	var sink storage.ResultSink = storage.NewCSVStore(cfg.App.OutputDir)
	if c.Results != nil {
		sink = storage.NewChain(log, sink, c.Results)
	}

	c.ScrapeJob = usecase.NewScrapeJob(c.Aggregator, sink, cfg.Serper.APIKey,
		usecase.WithBaseContext(ctx),
		usecase.WithJobLogger(log.With("component", "scrape_job")),
	)
	c.Stream = usecase.NewStreamReader(c.ScrapeJob)

	c.Listings = storage.NewListingCache(cfg.App.OutputDir)
	c.JobListing = usecase.NewJobListing(c.Listings)
	c.Postings = usecase.NewPostingScraper(c.Serper, c.Redis, cfg.Redis.TTL, log)

	c.Hub = ws.NewHub(log.With("component", "ws"))

	c.ScrapeJob.OnComplete(func(info usecase.RunInfo, terminal progress.Event) {
		c.Listings.Invalidate()
		if terminal.Kind != progress.KindComplete {
			return
		}
		total := 0
		if terminal.TotalJobs != nil {
			total = *terminal.TotalJobs
		}
		c.Hub.NotifyJobsUpdated(info.RunID.String(), info.Technology, info.Level, total, terminal.File)
	})

	return c, nil
}

// NewAggregator builds the production collector stack over a Serper client.
func NewAggregator(client *serper.Client, log *logging.Logger) *scraper.Aggregator {
	collector := scraper.NewCollector(client, scraper.WithCollectorLogger(log.With("component", "collector")))
	return scraper.NewAggregator(collector, scraper.WithAggregatorLogger(log.With("component", "aggregator")))
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var firstErr error
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			firstErr = err
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
