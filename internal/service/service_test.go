package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/polynews/backend/internal/domain"
)

// stubMarketStore serves canned markets and counts.
type stubMarketStore struct {
	markets   map[string]domain.Market
	counts    map[domain.Category]int64
	featured  map[domain.Category][]string
	countErr  error
	queriedBy []domain.Category
}

func (s *stubMarketStore) Upsert(context.Context, domain.Market) error { return nil }

func (s *stubMarketStore) GetByID(_ context.Context, id string) (domain.Market, error) {
	m, ok := s.markets[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

func (s *stubMarketStore) ListStaleActive(context.Context, time.Time, int) ([]domain.Market, error) {
	return nil, nil
}

func (s *stubMarketStore) CountActivePastDeadline(context.Context) (int64, error) { return 0, nil }

func (s *stubMarketStore) CountActive(_ context.Context, category domain.Category) (int64, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	s.queriedBy = append(s.queriedBy, category)
	return s.counts[category], nil
}

func (s *stubMarketStore) FeaturedIDs(_ context.Context, category domain.Category, _ int) ([]string, error) {
	return s.featured[category], nil
}

// stubSnapshotStore serves canned feed rows and snapshot lookups.
type stubSnapshotStore struct {
	rows     []domain.FeedRow
	resolved []domain.FeedRow
	latest   map[string]domain.Snapshot
	dayAgo   map[string]float64
	history  map[string][]domain.PricePoint
	lastSync *time.Time
}

func (s *stubSnapshotStore) Insert(context.Context, domain.Snapshot) error { return nil }

func (s *stubSnapshotStore) FeedRows(_ context.Context, category domain.Category, _ int) ([]domain.FeedRow, error) {
	if category == "" {
		return s.rows, nil
	}
	var out []domain.FeedRow
	for _, r := range s.rows {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubSnapshotStore) ResolvedRows(context.Context, time.Duration, int) ([]domain.FeedRow, error) {
	return s.resolved, nil
}

func (s *stubSnapshotStore) Latest(_ context.Context, marketID string) (domain.Snapshot, error) {
	snap, ok := s.latest[marketID]
	if !ok {
		return domain.Snapshot{}, domain.ErrNotFound
	}
	return snap, nil
}

func (s *stubSnapshotStore) DayAgoPrice(_ context.Context, marketID string) (*float64, error) {
	if p, ok := s.dayAgo[marketID]; ok {
		return &p, nil
	}
	return nil, nil
}

func (s *stubSnapshotStore) History(_ context.Context, marketID string, _ time.Time) ([]domain.PricePoint, error) {
	return s.history[marketID], nil
}

func (s *stubSnapshotStore) LastSync(context.Context) (*time.Time, error) { return s.lastSync, nil }

func (s *stubSnapshotStore) RefreshTrending(context.Context) error { return nil }

func (s *stubSnapshotStore) ListBefore(context.Context, time.Time) ([]domain.Snapshot, error) {
	return nil, nil
}

func (s *stubSnapshotStore) DeleteBefore(context.Context, time.Time) (int64, error) { return 0, nil }

// stubCache is a map-backed FeedCache that round-trips values through JSON
// like the real Redis cache does.
type stubCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    []string
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string][]byte)}
}

func (c *stubCache) Get(_ context.Context, key string, dst any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return domain.ErrNotFound
	}
	return json.Unmarshal(raw, dst)
}

func (c *stubCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	c.sets = append(c.sets, key)
	return nil
}

func (c *stubCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *stubCache) InvalidatePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

// stubStatusCache serves canned status counters.
type stubStatusCache struct {
	lastIngestion *time.Time
	errorCount    int64
	lastErr       error
}

func (c *stubStatusCache) SetLastIngestion(context.Context, time.Time) error { return nil }

func (c *stubStatusCache) LastIngestion(context.Context) (*time.Time, error) {
	return c.lastIngestion, c.lastErr
}

func (c *stubStatusCache) IncrErrorCount(context.Context, int64) error { return nil }

func (c *stubStatusCache) ErrorCount(context.Context) (int64, error) { return c.errorCount, nil }

func (c *stubStatusCache) IncrRequestCount(context.Context) error { return nil }

func (c *stubStatusCache) RequestCount(context.Context) (int64, error) { return 0, nil }

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
}

var errProbe = errors.New("probe failed")

func row(id string, category domain.Category, price float64, dayAgo *float64, volume float64, rank int) domain.FeedRow {
	return domain.FeedRow{
		ID:           id,
		Question:     "Will " + id + " happen?",
		Category:     category,
		Status:       domain.MarketStatusActive,
		CurrentPrice: price,
		Price24hAgo:  dayAgo,
		Volume:       volume,
		VolumeRank:   rank,
	}
}

func fptr(v float64) *float64 { return &v }
