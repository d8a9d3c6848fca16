package usecase

import (
	"context"
	"time"

	"ats-scout/internal/domain/progress"
	"ats-scout/internal/scraper"
)

const (
	DefaultStreamTimeout = 600 * time.Second
	DefaultPollInterval  = 500 * time.Millisecond

	StreamTimeoutMessage = "SSE stream timed out after 10 minutes"
	NoTerminalMessage    = "Scrape ended without terminal event"
)

// EventSource is the read side of a ScrapeJob.
type EventSource interface {
	Snapshot() ([]progress.Event, bool)
	HasHistory() bool
}

// StreamReader replays a job's event log to one client by polling.
type StreamReader struct {
	src     EventSource
	timeout time.Duration
	poll    time.Duration
	now     func() time.Time
	sleep   scraper.Sleeper
}

type StreamOption func(*StreamReader)

func WithStreamTimeout(d time.Duration) StreamOption {
	return func(r *StreamReader) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithPollInterval(d time.Duration) StreamOption {
	return func(r *StreamReader) {
		if d > 0 {
			r.poll = d
		}
	}
}

func WithStreamClock(now func() time.Time) StreamOption {
	return func(r *StreamReader) {
		if now != nil {
			r.now = now
		}
	}
}

func WithStreamSleeper(s scraper.Sleeper) StreamOption {
	return func(r *StreamReader) {
		if s != nil {
			r.sleep = s
		}
	}
}

func NewStreamReader(src EventSource, opts ...StreamOption) *StreamReader {
	r := &StreamReader{
		src:     src,
		timeout: DefaultStreamTimeout,
		poll:    DefaultPollInterval,
		now:     time.Now,
		sleep:   scraper.SleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open fails with ErrNoActiveJob when there is nothing to stream.
func (r *StreamReader) Open() error {
	if !r.src.HasHistory() {
		return ErrNoActiveJob
	}
	return nil
}

// Stream delivers every logged event in order until a terminal event, a synthetic
// timeout or end-of-run error, a delivery failure, or ctx cancellation. A log that
// shrinks under the cursor is replayed from the start.
func (r *StreamReader) Stream(ctx context.Context, deliver func(progress.Event) error) error {
	start := r.now()
	cursor := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.now().Sub(start) > r.timeout {
			return deliver(progress.Failed(StreamTimeoutMessage))
		}

		events, running := r.src.Snapshot()
		if len(events) < cursor {
			cursor = 0
		}

		for cursor < len(events) {
			e := events[cursor]
			cursor++
			if err := deliver(e); err != nil {
				return err
			}
			if e.IsTerminal() {
				return nil
			}
		}

		if !running {
			return deliver(progress.Failed(NoTerminalMessage))
		}

		if err := r.sleep(ctx, r.poll); err != nil {
			return err
		}
	}
}
