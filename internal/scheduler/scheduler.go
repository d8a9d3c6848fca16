// Package scheduler triggers scrape jobs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ats-scout/internal/pkg/logging"
	"ats-scout/internal/usecase"

	"github.com/robfig/cron/v3"
)

const lockKey = "scrape:schedule:lock"

type Starter interface {
	Start(technology, level string) (usecase.RunInfo, error)
}

// Locker grants at most one trigger per tick across instances sharing a Redis.
type Locker interface {
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
}

type Scheduler struct {
	cron       *cron.Cron
	spec       string
	technology string
	level      string
	job        Starter
	lock       Locker
	log        *logging.Logger
}

// New validates spec, a standard five-field cron expression or descriptor such as
// "@weekly". lock may be nil.
func New(spec, technology, level string, job Starter, lock Locker, log *logging.Logger) (*Scheduler, error) {
	if log == nil {
		log = logging.NewNop()
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid SCRAPE_SCHEDULE %q: %w", spec, err)
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLogger(cron.PrintfLogger(log))),
		spec:       spec,
		technology: technology,
		level:      level,
		job:        job,
		lock:       lock,
		log:        log,
	}, nil
}

func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.trigger(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	s.log.Info("scheduler started", "spec", s.spec, "technology", s.technology, "level", s.level)
	return nil
}

// Stop waits for a running trigger to return. The scrape it started keeps running.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) trigger(ctx context.Context) {
	if s.lock != nil {
		ok, err := s.lock.SetIfNotExists(ctx, lockKey, time.Now().UTC().Format(time.RFC3339), 50*time.Second)
		if err != nil {
			s.log.Warn("schedule lock failed, triggering anyway", "err", err)
		} else if !ok {
			s.log.Info("scheduled scrape skipped", "reason", "lock held")
			return
		}
	}

	info, err := s.job.Start(s.technology, s.level)
	switch {
	case errors.Is(err, usecase.ErrJobConflict):
		s.log.Info("scheduled scrape skipped", "reason", "already running")
	case err != nil:
		s.log.Error("scheduled scrape failed to start", "err", err)
	default:
		s.log.Info("scheduled scrape started", "run_id", info.RunID)
	}
}
