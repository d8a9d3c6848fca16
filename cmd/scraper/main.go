package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"ats-scout/internal/app"
	"ats-scout/internal/config"
	"ats-scout/internal/domain/progress"
	"ats-scout/internal/infrastructure/serper"
	"ats-scout/internal/infrastructure/storage"
	"ats-scout/internal/pkg/logging"
	"ats-scout/internal/search"
)

func main() {
	technology := flag.String("technology", search.DefaultTechnology, "technology key, see GET /api/technologies")
	flag.StringVar(technology, "t", search.DefaultTechnology, "shorthand for -technology")
	level := flag.String("level", search.DefaultLevel, "seniority level key")
	flag.StringVar(level, "l", search.DefaultLevel, "shorthand for -level")
	out := flag.String("out", "", "output directory (defaults to OUTPUT_DIR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg.App.LogLevel).With("cmd", "scraper")
	defer func() { _ = logger.Sync() }()

	dir := strings.TrimSpace(*out)
	if dir == "" {
		dir = cfg.App.OutputDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agg := app.NewAggregator(serper.NewClient(serper.Config{APIKey: cfg.Serper.APIKey}), logger)

	start := time.Now()
	summary, err := agg.Run(ctx, cfg.Serper.APIKey, *technology, *level, func(e progress.Event) {
		switch e.Kind {
		case progress.KindSourceDone:
			logger.Info("source done", "origin", e.Origin, "count", deref(e.Count), "index", deref(e.Index), "total", deref(e.Total))
		case progress.KindError:
			logger.Warn("source failed", "origin", e.Origin, "message", e.Message)
		case progress.KindPageFetched:
			logger.Debug("page fetched", "origin", e.Origin, "page", deref(e.Page), "results", deref(e.Results))
		}
	})
	if err != nil {
		logger.Error("scrape failed", "err", err)
		os.Exit(1)
	}
	for _, sc := range summary.Counts {
		logger.Info("origin total", "origin", sc.Origin, "count", sc.Count)
	}

	store := storage.NewCSVStore(dir)
	name, err := store.Save(ctx, storage.RunMeta{Technology: *technology, Level: *level, StartedAt: start}, summary.Results)
	if err != nil {
		logger.Error("write csv failed", "err", err)
		os.Exit(1)
	}
	path := filepath.Join(dir, name)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	logger.Info("scrape written", "file", path, "total_jobs", len(summary.Results), "elapsed", time.Since(start).Round(time.Millisecond).String())
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
