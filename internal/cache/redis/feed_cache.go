package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/polynews/backend/internal/domain"
)

// FeedCache implements domain.FeedCache with JSON-serialized values under
// the shared polynews: key space.
//
// Key schema:
//
//	polynews:feed:{category}:{sort}:{limit}:{offset} - market feed pages
//	polynews:editorial_feed:{category}               - composed editorial layouts
//	polynews:market:{id}                             - market detail payloads
//	polynews:categories                              - category listing
type FeedCache struct {
	rdb *redis.Client
}

var _ domain.FeedCache = (*FeedCache)(nil)

// NewFeedCache creates a FeedCache backed by the given Client.
func NewFeedCache(c *Client) *FeedCache {
	return &FeedCache{rdb: c.Underlying()}
}

// Get loads a cached payload into dst. Returns domain.ErrNotFound on miss.
func (fc *FeedCache) Get(ctx context.Context, key string, dst any) error {
	data, err := fc.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("redis: get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("redis: unmarshal %s: %w", key, err)
	}
	return nil
}

// Set stores a JSON-serialized payload with the given TTL.
func (fc *FeedCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("redis: marshal %s: %w", key, err)
	}
	if err := fc.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// Delete removes a single key.
func (fc *FeedCache) Delete(ctx context.Context, key string) error {
	if err := fc.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: delete %s: %w", key, err)
	}
	return nil
}

// InvalidatePrefix removes every key with the given prefix using SCAN, so a
// large key space never blocks the server the way KEYS would.
func (fc *FeedCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	pattern := prefix + "*"
	for {
		keys, next, err := fc.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("redis: scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := fc.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis: delete keys for %s: %w", pattern, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
