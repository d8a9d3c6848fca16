// Package storage persists scrape results and finds them again for the listing endpoints.
package storage

import (
	"context"
	"fmt"
	"time"

	"ats-scout/internal/domain/job"
	"ats-scout/internal/pkg/logging"

	"github.com/google/uuid"
)

// RunMeta identifies the run a batch of results belongs to.
type RunMeta struct {
	RunID      uuid.UUID
	Technology string
	Level      string
	StartedAt  time.Time
}

// ResultSink persists one run's results and returns a reference to the stored output.
type ResultSink interface {
	Save(ctx context.Context, meta RunMeta, rows []job.Result) (string, error)
}

// OutputRecorder is implemented by secondary sinks that keep the primary reference.
type OutputRecorder interface {
	RecordOutput(ctx context.Context, meta RunMeta, ref string) error
}

// Chain saves to a primary sink whose reference is authoritative, then to any secondary
// sinks. Secondary failures are logged and never returned.
type Chain struct {
	primary   ResultSink
	secondary []ResultSink
	log       *logging.Logger
}

func NewChain(log *logging.Logger, primary ResultSink, secondary ...ResultSink) *Chain {
	if log == nil {
		log = logging.NewNop()
	}
	out := make([]ResultSink, 0, len(secondary))
	for _, s := range secondary {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Chain{primary: primary, secondary: out, log: log}
}

func (c *Chain) Save(ctx context.Context, meta RunMeta, rows []job.Result) (string, error) {
	if c == nil || c.primary == nil {
		return "", fmt.Errorf("nil result sink")
	}
	ref, err := c.primary.Save(ctx, meta, rows)
	if err != nil {
		return "", err
	}
	for _, s := range c.secondary {
		if _, err := s.Save(ctx, meta, rows); err != nil {
			c.log.Warn("secondary result sink failed", "run_id", meta.RunID, "err", err)
			continue
		}
		if rec, ok := s.(OutputRecorder); ok {
			if err := rec.RecordOutput(ctx, meta, ref); err != nil {
				c.log.Warn("record output reference failed", "run_id", meta.RunID, "err", err)
			}
		}
	}
	return ref, nil
}
