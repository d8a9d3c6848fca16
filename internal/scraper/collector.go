package scraper

import (
	"context"
	"strings"
	"time"

	"ats-scout/internal/domain/job"
	"ats-scout/internal/domain/progress"
	"ats-scout/internal/infrastructure/serper"
	"ats-scout/internal/pkg/logging"
	"ats-scout/internal/search"
)

const (
	MaxPages         = 5
	DefaultPageDelay = 1 * time.Second
)

// PageFetcher is the search provider as seen by the collector.
type PageFetcher interface {
	Search(ctx context.Context, apiKey string, in serper.SearchRequest) (serper.SearchResponse, error)
}

type Collector struct {
	fetcher   PageFetcher
	admit     func(link string) bool
	pageDelay time.Duration
	sleep     Sleeper
	log       *logging.Logger
}

type CollectorOption func(*Collector)

func WithPageDelay(d time.Duration) CollectorOption {
	return func(c *Collector) { c.pageDelay = d }
}

func WithCollectorSleeper(s Sleeper) CollectorOption {
	return func(c *Collector) {
		if s != nil {
			c.sleep = s
		}
	}
}

func WithLinkFilter(admit func(link string) bool) CollectorOption {
	return func(c *Collector) {
		if admit != nil {
			c.admit = admit
		}
	}
}

func WithCollectorLogger(l *logging.Logger) CollectorOption {
	return func(c *Collector) {
		if l != nil {
			c.log = l
		}
	}
}

func NewCollector(fetcher PageFetcher, opts ...CollectorOption) *Collector {
	c := &Collector{
		fetcher:   fetcher,
		admit:     search.IsAdmissibleLink,
		pageDelay: DefaultPageDelay,
		sleep:     SleepContext,
		log:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect pages through one source until targetMin unique results are held, MaxPages have
// been fetched, a page comes back empty, or the provider fails. A failure is reported as an
// error event for the source; whatever was collected so far is still returned.
func (c *Collector) Collect(ctx context.Context, src job.Source, apiKey string, targetMin int, emit progress.Emitter) []job.Result {
	if emit == nil {
		emit = progress.Discard
	}

	rows := make([]job.Result, 0)
	seen := make(map[string]struct{})

	for page := 1; len(rows) < targetMin && page <= MaxPages; page++ {
		c.log.Info("querying jobs", "origin", src.Origin, "page", page)

		resp, err := c.fetcher.Search(ctx, apiKey, serper.NewSearchRequest(src.Query, page))
		if err != nil {
			c.log.Error("fetch page failed", "origin", src.Origin, "page", page, "err", err)
			emit(progress.SourceError(src.Origin, err.Error()))
			break
		}

		emit(progress.PageFetched(src.Origin, page, len(resp.Organic)))

		if len(resp.Organic) == 0 {
			c.log.Info("no more results", "origin", src.Origin, "page", page)
			break
		}

		for _, it := range resp.Organic {
			link := strings.TrimSpace(it.Link)
			if link == "" {
				continue
			}
			if _, dup := seen[link]; dup {
				continue
			}
			if !c.admit(link) {
				continue
			}
			seen[link] = struct{}{}
			rows = append(rows, job.Result{
				Title:   strings.TrimSpace(it.Title),
				Snippet: strings.TrimSpace(it.Snippet),
				Link:    link,
			})
		}

		if len(rows) >= targetMin || page == MaxPages {
			break
		}
		if err := c.sleep(ctx, c.pageDelay); err != nil {
			c.log.Warn("pagination interrupted", "origin", src.Origin, "err", err)
			break
		}
	}

	return rows
}
