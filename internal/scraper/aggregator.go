package scraper

import (
	"context"
	"fmt"
	"time"

	"ats-scout/internal/domain/job"
	"ats-scout/internal/domain/progress"
	"ats-scout/internal/pkg/logging"
	"ats-scout/internal/search"
)

const (
	DefaultTargetMin   = 50
	DefaultSourceDelay = 2 * time.Second
)

// SourceCollector gathers the results of one source.
type SourceCollector interface {
	Collect(ctx context.Context, src job.Source, apiKey string, targetMin int, emit progress.Emitter) []job.Result
}

// SourceBuilder derives the ordered source list for a technology/level pair.
type SourceBuilder func(technology, level string) ([]job.Source, error)

type Summary struct {
	Results []job.Result
	Counts  progress.SourceCounts
}

type Aggregator struct {
	collector   SourceCollector
	sources     SourceBuilder
	targetMin   int
	sourceDelay time.Duration
	sleep       Sleeper
	log         *logging.Logger
}

type AggregatorOption func(*Aggregator)

func WithSourceBuilder(b SourceBuilder) AggregatorOption {
	return func(a *Aggregator) {
		if b != nil {
			a.sources = b
		}
	}
}

func WithTargetMin(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.targetMin = n
		}
	}
}

func WithSourceDelay(d time.Duration) AggregatorOption {
	return func(a *Aggregator) { a.sourceDelay = d }
}

func WithAggregatorSleeper(s Sleeper) AggregatorOption {
	return func(a *Aggregator) {
		if s != nil {
			a.sleep = s
		}
	}
}

func WithAggregatorLogger(l *logging.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

func NewAggregator(collector SourceCollector, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		collector:   collector,
		sources:     search.BuildSources,
		targetMin:   DefaultTargetMin,
		sourceDelay: DefaultSourceDelay,
		sleep:       SleepContext,
		log:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run collects every source in order. Results are not deduplicated across sources.
func (a *Aggregator) Run(ctx context.Context, apiKey, technology, level string, emit progress.Emitter) (Summary, error) {
	if a == nil || a.collector == nil {
		return Summary{}, fmt.Errorf("nil aggregator/collector")
	}
	if emit == nil {
		emit = progress.Discard
	}

	sources, err := a.sources(technology, level)
	if err != nil {
		return Summary{}, err
	}

	out := Summary{
		Results: make([]job.Result, 0),
		Counts:  make(progress.SourceCounts, 0, len(sources)),
	}
	total := len(sources)

	for i, src := range sources {
		emit(progress.SourceStarted(src.Origin, i, total))

		rows := a.collector.Collect(ctx, src, apiKey, a.targetMin, emit)
		out.Results = append(out.Results, rows...)
		out.Counts = append(out.Counts, progress.SourceCount{Origin: src.Origin, Count: len(rows)})

		emit(progress.SourceCompleted(src.Origin, len(rows), i, total))
		a.log.Info("source collected", "origin", src.Origin, "count", len(rows), "index", i, "total", total)

		if err := a.sleep(ctx, a.sourceDelay); err != nil {
			return out, fmt.Errorf("aggregation interrupted after %s: %w", src.Origin, err)
		}
	}

	return out, nil
}
