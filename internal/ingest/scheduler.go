package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/polynews/backend/internal/domain"
)

const lockKey = "ingest"

// RetryPolicy controls the backoff retries applied to a failed cycle before
// the scheduler gives up and waits for the next tick.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy retries three times at 60s, 180s, 540s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 60 * time.Second, Multiplier: 3}
}

// Delay returns the backoff delay before the given retry, zero-indexed.
func (p RetryPolicy) Delay(retry int) time.Duration {
	d := float64(p.BaseDelay)
	for i := 0; i < retry; i++ {
		d *= p.Multiplier
	}
	return time.Duration(d)
}

// Runner is the unit of scheduled work, one reconciliation cycle.
type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler runs reconciliation cycles at a fixed interval, holding a
// distributed lock so concurrent deployments never overlap cycles.
type Scheduler struct {
	runner   Runner
	locks    domain.LockManager
	retry    RetryPolicy
	notifier Notifier
	logger   *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewScheduler wires a Scheduler. notifier may be nil.
func NewScheduler(runner Runner, locks domain.LockManager, retry RetryPolicy, notifier Notifier, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		locks:    locks,
		retry:    retry,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "scheduler")),
		sleep:    sleepCtx,
	}
}

// RunLoop runs one cycle immediately, then one per interval until ctx is
// cancelled.
func (s *Scheduler) RunLoop(ctx context.Context, interval time.Duration) error {
	s.logger.Info("starting ingestion loop", slog.Duration("interval", interval))

	s.runCycle(ctx, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("ingestion loop stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx, interval)
		}
	}
}

// runCycle acquires the ingestion lock and runs the cycle with backoff
// retries. A held lock means another instance is mid-cycle, so this tick is
// skipped rather than queued.
func (s *Scheduler) runCycle(ctx context.Context, interval time.Duration) {
	unlock, err := s.locks.Acquire(ctx, lockKey, 2*interval)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			s.logger.Info("cycle already running elsewhere, skipping tick")
			return
		}
		s.logger.Error("lock acquisition failed", slog.String("error", err.Error()))
		return
	}
	defer unlock()

	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = s.runner.Run(ctx)
		if lastErr == nil {
			return
		}
		if errors.Is(lastErr, context.Canceled) || attempt >= s.retry.MaxAttempts {
			break
		}

		delay := s.retry.Delay(attempt)
		s.logger.Warn("cycle failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", lastErr.Error()),
		)
		if err := s.sleep(ctx, delay); err != nil {
			return
		}
	}

	s.logger.Error("cycle failed after retries", slog.String("error", lastErr.Error()))
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, "cycle_failed", "Ingestion cycle failed", lastErr.Error()); err != nil {
			s.logger.Warn("cycle failure notification failed", slog.String("error", err.Error()))
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
