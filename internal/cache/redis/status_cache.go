package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/polynews/backend/internal/domain"
)

const (
	keyLastIngestion = "polynews:last_ingestion"
	keyErrorsHourly  = "polynews:errors:hourly"
	keyRequestsDaily = "polynews:requests:daily"

	errorCounterTTL   = time.Hour
	requestCounterTTL = 24 * time.Hour
)

// StatusCache implements domain.StatusCache: the last-ingestion timestamp
// plus rolling error and request counters with fixed TTLs.
type StatusCache struct {
	rdb *redis.Client
}

var _ domain.StatusCache = (*StatusCache)(nil)

// NewStatusCache creates a StatusCache backed by the given Client.
func NewStatusCache(c *Client) *StatusCache {
	return &StatusCache{rdb: c.Underlying()}
}

// SetLastIngestion records the completion time of the latest cycle.
func (sc *StatusCache) SetLastIngestion(ctx context.Context, t time.Time) error {
	if err := sc.rdb.Set(ctx, keyLastIngestion, t.UTC().Format(time.RFC3339Nano), 0).Err(); err != nil {
		return fmt.Errorf("redis: set last ingestion: %w", err)
	}
	return nil
}

// LastIngestion returns the last recorded cycle time, or nil when no cycle
// has completed yet.
func (sc *StatusCache) LastIngestion(ctx context.Context) (*time.Time, error) {
	val, err := sc.rdb.Get(ctx, keyLastIngestion).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis: get last ingestion: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return nil, fmt.Errorf("redis: parse last ingestion %q: %w", val, err)
	}
	return &t, nil
}

// IncrErrorCount bumps the hourly error counter by n and refreshes its TTL.
func (sc *StatusCache) IncrErrorCount(ctx context.Context, n int64) error {
	return sc.incrCounter(ctx, keyErrorsHourly, n, errorCounterTTL)
}

// ErrorCount returns the current hourly error count.
func (sc *StatusCache) ErrorCount(ctx context.Context) (int64, error) {
	return sc.counter(ctx, keyErrorsHourly)
}

// IncrRequestCount bumps the daily upstream request counter.
func (sc *StatusCache) IncrRequestCount(ctx context.Context) error {
	return sc.incrCounter(ctx, keyRequestsDaily, 1, requestCounterTTL)
}

// RequestCount returns the current daily request count.
func (sc *StatusCache) RequestCount(ctx context.Context) (int64, error) {
	return sc.counter(ctx, keyRequestsDaily)
}

func (sc *StatusCache) incrCounter(ctx context.Context, key string, n int64, ttl time.Duration) error {
	pipe := sc.rdb.TxPipeline()
	pipe.IncrBy(ctx, key, n)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: increment %s: %w", key, err)
	}
	return nil
}

func (sc *StatusCache) counter(ctx context.Context, key string) (int64, error) {
	val, err := sc.rdb.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return val, nil
}
