package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ats-scout/internal/domain/progress"
	"ats-scout/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	events  []progress.Event
	running bool
}

// scriptedSource returns each scripted snapshot once and then repeats the last one.
type scriptedSource struct {
	mu    sync.Mutex
	steps []snapshot
	i     int
}

func (s *scriptedSource) Snapshot() ([]progress.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.steps[s.i]
	if s.i < len(s.steps)-1 {
		s.i++
	}
	return st.events, st.running
}

func (s *scriptedSource) HasHistory() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.steps[s.i]
	return st.running || len(st.events) > 0
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return ctx.Err()
}

func newTestReader(src EventSource, clock *fakeClock) *StreamReader {
	return NewStreamReader(src, WithStreamClock(clock.Now), WithStreamSleeper(clock.Sleep))
}

func collect(t *testing.T, r *StreamReader) []progress.Event {
	t.Helper()
	var got []progress.Event
	err := r.Stream(context.Background(), func(e progress.Event) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)
	return got
}

func TestStream_ReplaysFinishedRun(t *testing.T) {
	log := []progress.Event{
		progress.SourceStarted("Lever", 0, 1),
		progress.PageFetched("Lever", 1, 0),
		progress.SourceCompleted("Lever", 0, 0, 1),
		progress.Completed(0, "jobs_php_any_2026-10-14.csv", progress.SourceCounts{{Origin: "Lever"}}),
	}
	src := &scriptedSource{steps: []snapshot{{events: log}}}

	for i := 0; i < 2; i++ {
		got := collect(t, newTestReader(src, &fakeClock{}))
		assert.Equal(t, log, got)
	}
}

func TestStream_ClosesAfterSourceError(t *testing.T) {
	log := []progress.Event{
		progress.SourceStarted("Lever", 0, 2),
		progress.SourceError("Lever", "rate limited"),
		progress.SourceCompleted("Lever", 0, 0, 2),
		progress.Completed(0, "f.csv", nil),
	}
	got := collect(t, newTestReader(&scriptedSource{steps: []snapshot{{events: log}}}, &fakeClock{}))
	require.Len(t, got, 2)
	assert.Equal(t, progress.KindError, got[1].Kind)
	assert.Equal(t, "Lever", got[1].Origin)
}

func TestStream_ClosesAfterTerminalError(t *testing.T) {
	log := []progress.Event{
		progress.Failed("boom"),
		progress.SourceStarted("late", 0, 1),
	}
	got := collect(t, newTestReader(&scriptedSource{steps: []snapshot{{events: log}}}, &fakeClock{}))
	require.Len(t, got, 1)
	assert.Equal(t, "boom", got[0].Message)
}

func TestStream_WaitsForRunningJob(t *testing.T) {
	a := progress.SourceStarted("Lever", 0, 1)
	b := progress.SourceCompleted("Lever", 1, 0, 1)
	done := progress.Completed(1, "f.csv", nil)
	src := &scriptedSource{steps: []snapshot{
		{events: nil, running: true},
		{events: []progress.Event{a}, running: true},
		{events: []progress.Event{a}, running: true},
		{events: []progress.Event{a, b, done}, running: false},
	}}
	clock := &fakeClock{}

	got := collect(t, newTestReader(src, clock))
	assert.Equal(t, []progress.Event{a, b, done}, got)
	assert.Equal(t, 3*DefaultPollInterval, clock.Now().Sub(time.Time{}))
}

func TestStream_MissingTerminalEmitsSyntheticError(t *testing.T) {
	a := progress.SourceStarted("Lever", 0, 1)
	got := collect(t, newTestReader(&scriptedSource{steps: []snapshot{{events: []progress.Event{a}}}}, &fakeClock{}))
	require.Len(t, got, 2)
	assert.Equal(t, a, got[0])
	assert.Equal(t, progress.KindError, got[1].Kind)
	assert.Equal(t, NoTerminalMessage, got[1].Message)
}

func TestStream_RecoversFromShrinkingLog(t *testing.T) {
	a := progress.SourceStarted("A", 0, 1)
	b := progress.PageFetched("A", 1, 3)
	c := progress.SourceCompleted("A", 3, 0, 1)
	x := progress.SourceStarted("X", 0, 1)
	done := progress.Completed(0, "f.csv", nil)
	src := &scriptedSource{steps: []snapshot{
		{events: []progress.Event{a, b, c}, running: true},
		{events: []progress.Event{}, running: true},
		{events: []progress.Event{x, done}, running: false},
	}}

	got := collect(t, newTestReader(src, &fakeClock{}))
	assert.Equal(t, []progress.Event{a, b, c, x, done}, got)
}

func TestStream_TimesOut(t *testing.T) {
	src := &scriptedSource{steps: []snapshot{{events: []progress.Event{progress.SourceStarted("A", 0, 1)}, running: true}}}
	clock := &fakeClock{}

	got := collect(t, newTestReader(src, clock))
	require.Len(t, got, 2)
	assert.Equal(t, progress.KindSourceStart, got[0].Kind)
	assert.Equal(t, progress.KindError, got[1].Kind)
	assert.Equal(t, StreamTimeoutMessage, got[1].Message)
	assert.Greater(t, clock.Now().Sub(time.Time{}), DefaultStreamTimeout)
	assert.LessOrEqual(t, clock.Now().Sub(time.Time{}), DefaultStreamTimeout+DefaultPollInterval)
}

func TestStream_TimesOutWithEmptyLog(t *testing.T) {
	src := &scriptedSource{steps: []snapshot{{running: true}}}
	clock := &fakeClock{}

	got := collect(t, newTestReader(src, clock))
	require.Len(t, got, 1)
	assert.Equal(t, progress.KindError, got[0].Kind)
	assert.Equal(t, StreamTimeoutMessage, got[0].Message)
}

func TestStream_DeliveryFailureStops(t *testing.T) {
	log := []progress.Event{progress.SourceStarted("A", 0, 2), progress.SourceStarted("B", 1, 2)}
	r := newTestReader(&scriptedSource{steps: []snapshot{{events: log, running: true}}}, &fakeClock{})

	gone := errors.New("client gone")
	calls := 0
	err := r.Stream(context.Background(), func(progress.Event) error {
		calls++
		return gone
	})
	assert.ErrorIs(t, err, gone)
	assert.Equal(t, 1, calls)
}

func TestStream_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := newTestReader(&scriptedSource{steps: []snapshot{{running: true}}}, &fakeClock{})
	err := r.Stream(ctx, func(progress.Event) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStream_OpenRequiresHistory(t *testing.T) {
	idle := NewStreamReader(&scriptedSource{steps: []snapshot{{}}})
	assert.ErrorIs(t, idle.Open(), ErrNoActiveJob)

	busy := NewStreamReader(&scriptedSource{steps: []snapshot{{running: true}}})
	assert.NoError(t, busy.Open())
}

func TestStream_FollowsLiveJob(t *testing.T) {
	runner := &fakeRunner{
		gate:   make(chan struct{}),
		events: []progress.Event{progress.SourceStarted("Lever", 0, 1)},
	}
	j := NewScrapeJob(runner, &memorySink{}, "key")
	r := NewStreamReader(j, WithPollInterval(time.Millisecond), WithStreamSleeper(scraper.SleepContext))

	_, err := j.Start("php", "any")
	require.NoError(t, err)
	require.NoError(t, r.Open())

	var mu sync.Mutex
	var got []progress.Event
	done := make(chan error, 1)
	go func() {
		done <- r.Stream(context.Background(), func(e progress.Event) error {
			mu.Lock()
			got = append(got, e)
			mu.Unlock()
			return nil
		})
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 1
	}, time.Second, time.Millisecond)
	close(runner.gate)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not finish")
	}
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, progress.KindComplete, got[1].Kind)
}

func TestStream_FinishedRunStopsAtSourceError(t *testing.T) {
	runner := &fakeRunner{events: []progress.Event{
		progress.SourceStarted("Lever", 0, 2),
		progress.SourceError("Lever", "upstream 500"),
		progress.SourceCompleted("Lever", 0, 0, 2),
		progress.SourceStarted("AshBy", 1, 2),
		progress.SourceCompleted("AshBy", 0, 1, 2),
	}}
	j := NewScrapeJob(runner, &memorySink{}, "key")
	_, err := j.Start("php", "any")
	require.NoError(t, err)
	waitFinished(t, j)

	events, _ := j.Snapshot()
	require.Len(t, events, 6)

	got := collect(t, newTestReader(j, &fakeClock{}))
	require.Len(t, got, 2)
	assert.Equal(t, progress.KindSourceStart, got[0].Kind)
	assert.Equal(t, progress.KindError, got[1].Kind)
	assert.Equal(t, "upstream 500", got[1].Message)
}
