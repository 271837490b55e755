package ingest

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polynews/backend/internal/domain"
)

type scriptedRunner struct {
	results []error
	calls   int
}

func (r *scriptedRunner) Run(context.Context) error {
	idx := r.calls
	r.calls++
	if idx >= len(r.results) {
		return nil
	}
	return r.results[idx]
}

type fakeLocks struct {
	held     bool
	acquired int
	released int
}

func (l *fakeLocks) Acquire(context.Context, string, time.Duration) (func(), error) {
	if l.held {
		return nil, domain.ErrLockHeld
	}
	l.acquired++
	return func() { l.released++ }, nil
}

func testScheduler(runner Runner, locks domain.LockManager, notifier Notifier) *Scheduler {
	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	return NewScheduler(runner, locks, DefaultRetryPolicy(), notifier, logger)
}

func TestRetryPolicyDelays(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 60*time.Second, p.Delay(0))
	assert.Equal(t, 180*time.Second, p.Delay(1))
	assert.Equal(t, 540*time.Second, p.Delay(2))
}

func TestSchedulerRetriesFailedCycle(t *testing.T) {
	runner := &scriptedRunner{results: []error{
		errors.New("transient"),
		errors.New("transient"),
		nil,
	}}
	locks := &fakeLocks{}
	s := testScheduler(runner, locks, nil)

	var delays []time.Duration
	s.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	s.runCycle(context.Background(), time.Minute)

	assert.Equal(t, 3, runner.calls)
	assert.Equal(t, []time.Duration{60 * time.Second, 180 * time.Second}, delays)
	assert.Equal(t, 1, locks.released)
}

func TestSchedulerGivesUpAfterMaxRetries(t *testing.T) {
	boom := errors.New("persistent")
	runner := &scriptedRunner{results: []error{boom, boom, boom, boom, boom}}
	notifier := &memNotifier{}
	s := testScheduler(runner, &fakeLocks{}, notifier)
	s.sleep = func(context.Context, time.Duration) error { return nil }

	s.runCycle(context.Background(), time.Minute)

	// Initial attempt plus three retries.
	assert.Equal(t, 4, runner.calls)
	assert.Equal(t, []string{"cycle_failed"}, notifier.events)
}

func TestSchedulerSkipsTickWhenLockHeld(t *testing.T) {
	runner := &scriptedRunner{}
	s := testScheduler(runner, &fakeLocks{held: true}, nil)

	s.runCycle(context.Background(), time.Minute)

	assert.Equal(t, 0, runner.calls)
}

func TestSchedulerStopsRetryingOnCancel(t *testing.T) {
	runner := &scriptedRunner{results: []error{errors.New("transient"), nil}}
	s := testScheduler(runner, &fakeLocks{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	s.sleep = func(context.Context, time.Duration) error {
		cancel()
		return ctx.Err()
	}

	s.runCycle(ctx, time.Minute)

	assert.Equal(t, 1, runner.calls)
}

func TestSchedulerLoopStopsOnContextDone(t *testing.T) {
	runner := &scriptedRunner{}
	s := testScheduler(runner, &fakeLocks{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.RunLoop(ctx, 50*time.Millisecond)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, runner.calls, "first cycle runs before the loop observes cancellation")
}
