package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"ats-scout/internal/domain/progress"
	"ats-scout/internal/infrastructure/storage"
	"ats-scout/internal/pkg/logging"
	"ats-scout/internal/scraper"
	"ats-scout/internal/search"

	"github.com/google/uuid"
)

// Runner executes one full aggregation.
type Runner interface {
	Run(ctx context.Context, apiKey, technology, level string, emit progress.Emitter) (scraper.Summary, error)
}

type RunInfo struct {
	RunID      uuid.UUID
	Technology string
	Level      string
	StartedAt  time.Time
}

type Status struct {
	Running    bool
	Completed  bool
	EventCount int
	RunID      string
	Technology string
	Level      string
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// CompletionHook is called once per run after its terminal event is recorded.
type CompletionHook func(info RunInfo, terminal progress.Event)

// ScrapeJob runs at most one aggregation at a time and keeps its events in an
// append-only log that stream readers replay. Reset clears the log without stopping an
// in-flight worker, which keeps appending into the cleared log.
type ScrapeJob struct {
	runner Runner
	sink   storage.ResultSink
	apiKey string
	base   context.Context
	now    func() time.Time
	log    *logging.Logger

	hooksMu sync.RWMutex
	hooks   []CompletionHook

	mu         sync.Mutex
	running    bool
	completed  bool
	events     []progress.Event
	current    RunInfo
	finishedAt time.Time
}

type ScrapeJobOption func(*ScrapeJob)

// WithBaseContext sets the context workers run under; cancelling it aborts in-flight runs.
func WithBaseContext(ctx context.Context) ScrapeJobOption {
	return func(j *ScrapeJob) {
		if ctx != nil {
			j.base = ctx
		}
	}
}

func WithClock(now func() time.Time) ScrapeJobOption {
	return func(j *ScrapeJob) {
		if now != nil {
			j.now = now
		}
	}
}

func WithJobLogger(l *logging.Logger) ScrapeJobOption {
	return func(j *ScrapeJob) {
		if l != nil {
			j.log = l
		}
	}
}

func NewScrapeJob(runner Runner, sink storage.ResultSink, apiKey string, opts ...ScrapeJobOption) *ScrapeJob {
	j := &ScrapeJob{
		runner: runner,
		sink:   sink,
		apiKey: apiKey,
		base:   context.Background(),
		now:    time.Now,
		log:    logging.NewNop(),
		events: make([]progress.Event, 0),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *ScrapeJob) OnComplete(h CompletionHook) {
	if h == nil {
		return
	}
	j.hooksMu.Lock()
	j.hooks = append(j.hooks, h)
	j.hooksMu.Unlock()
}

func normalizeKey(s, def string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def
	}
	return s
}

// Start launches a run in the background and returns immediately.
func (j *ScrapeJob) Start(technology, level string) (RunInfo, error) {
	technology = normalizeKey(technology, search.DefaultTechnology)
	level = normalizeKey(level, search.DefaultLevel)
	if err := search.Validate(technology, level); err != nil {
		return RunInfo{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return RunInfo{}, ErrJobConflict
	}
	info := RunInfo{
		RunID:      uuid.New(),
		Technology: technology,
		Level:      level,
		StartedAt:  j.now().UTC(),
	}
	j.running = true
	j.completed = false
	j.events = make([]progress.Event, 0)
	j.current = info
	j.finishedAt = time.Time{}
	j.mu.Unlock()

	j.log.Info("scrape job started", "run_id", info.RunID, "technology", technology, "level", level)
	go j.work(info)
	return info, nil
}

func (j *ScrapeJob) appendEvent(e progress.Event) {
	j.mu.Lock()
	j.events = append(j.events, e)
	j.mu.Unlock()
}

func (j *ScrapeJob) work(info RunInfo) {
	var terminal progress.Event
	defer func() {
		if r := recover(); r != nil {
			j.log.Error("scrape job panicked", "run_id", info.RunID, "panic", r)
			terminal = progress.Failed(fmt.Sprintf("internal error: %v", r))
		}
		j.finish(terminal)
		j.log.Info("scrape job finished", "run_id", info.RunID, "event", terminal.Kind, "total_jobs", terminal.TotalJobs)
		j.notify(info, terminal)
	}()

	terminal = j.execute(info)
}

func (j *ScrapeJob) execute(info RunInfo) progress.Event {
	summary, err := j.runner.Run(j.base, j.apiKey, info.Technology, info.Level, j.appendEvent)
	if err != nil {
		j.log.Error("scrape failed", "run_id", info.RunID, "err", err)
		return progress.Failed(err.Error())
	}

	ref, err := j.sink.Save(j.base, storage.RunMeta{
		RunID:      info.RunID,
		Technology: info.Technology,
		Level:      info.Level,
		StartedAt:  info.StartedAt,
	}, summary.Results)
	if err != nil {
		j.log.Error("save results failed", "run_id", info.RunID, "err", err)
		return progress.Failed(err.Error())
	}
	return progress.Completed(len(summary.Results), ref, summary.Counts)
}

// finish appends the terminal event and flips the flags in one critical section.
func (j *ScrapeJob) finish(terminal progress.Event) {
	j.mu.Lock()
	j.events = append(j.events, terminal)
	j.running = false
	j.completed = true
	j.finishedAt = j.now().UTC()
	j.mu.Unlock()
}

func (j *ScrapeJob) notify(info RunInfo, terminal progress.Event) {
	j.hooksMu.RLock()
	hooks := append([]CompletionHook(nil), j.hooks...)
	j.hooksMu.RUnlock()
	for _, h := range hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					j.log.Error("completion hook panicked", "run_id", info.RunID, "panic", r)
				}
			}()
			h(info, terminal)
		}()
	}
}

func (j *ScrapeJob) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()

	st := Status{
		Running:    j.running,
		Completed:  j.completed,
		EventCount: len(j.events),
	}
	if j.current.RunID != uuid.Nil {
		started := j.current.StartedAt
		st.RunID = j.current.RunID.String()
		st.Technology = j.current.Technology
		st.Level = j.current.Level
		st.StartedAt = &started
	}
	if !j.finishedAt.IsZero() {
		finished := j.finishedAt
		st.FinishedAt = &finished
	}
	return st
}

// Reset returns the job to idle. A worker still running is not stopped.
func (j *ScrapeJob) Reset() {
	j.mu.Lock()
	j.running = false
	j.completed = false
	j.events = make([]progress.Event, 0)
	j.current = RunInfo{}
	j.finishedAt = time.Time{}
	j.mu.Unlock()
	j.log.Info("scrape job reset")
}

// Snapshot copies the event log and the running flag under one lock.
func (j *ScrapeJob) Snapshot() ([]progress.Event, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]progress.Event, len(j.events))
	copy(out, j.events)
	return out, j.running
}

// HasHistory reports whether there is anything for a stream reader to replay or wait for.
func (j *ScrapeJob) HasHistory() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running || j.completed || len(j.events) > 0
}
