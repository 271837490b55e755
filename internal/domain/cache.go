package domain

import (
	"context"
	"time"
)

// FeedCache stores composed response payloads keyed by filter parameters
// with a short TTL. Reads that miss return ErrNotFound.
type FeedCache interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// InvalidatePrefix removes every key with the given prefix. Used by the
	// reconciler after each successful cycle.
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// StatusCache holds the scalar ingestion status counters.
type StatusCache interface {
	SetLastIngestion(ctx context.Context, t time.Time) error
	LastIngestion(ctx context.Context) (*time.Time, error)

	// IncrErrorCount bumps the hourly ingestion error counter (1h TTL).
	IncrErrorCount(ctx context.Context, n int64) error
	ErrorCount(ctx context.Context) (int64, error)

	// IncrRequestCount bumps the daily upstream request counter (24h TTL).
	IncrRequestCount(ctx context.Context) error
	RequestCount(ctx context.Context) (int64, error)
}

// LockManager provides distributed locking, used to keep two ingestion
// cycles from overlapping.
type LockManager interface {
	// Acquire obtains the lock and returns an unlock function, or
	// ErrLockHeld when another holder has it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}
