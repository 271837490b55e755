// Package service implements the read-path use cases behind the HTTP API:
// the composed editorial feed, the paginated market feed, market detail,
// categories, and system status. Every service is cache-aside over Redis
// with the Postgres stores as source of truth.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/polynews/backend/internal/domain"
	"github.com/polynews/backend/internal/editorial"
)

// Market feed sort orders.
const (
	SortTrending    = "trending"
	SortInteresting = "interesting"
)

const (
	resolvedWindow = 24 * time.Hour
	resolvedLimit  = 10
	maxPageSize    = 100
	defaultPage    = 50
)

// FeedQuery are the market feed listing parameters.
type FeedQuery struct {
	Category domain.Category
	Sort     string
	Limit    int
	Offset   int
}

// MarketCard is the compact market shape served by the feed listing.
type MarketCard struct {
	ID             string              `json:"id"`
	Question       string              `json:"question"`
	Category       domain.Category     `json:"category"`
	CurrentPrice   float64             `json:"current_price"`
	Price24hAgo    *float64            `json:"price_24h_ago,omitempty"`
	Delta          *float64            `json:"delta,omitempty"`
	Volume         float64             `json:"volume"`
	ResolutionDate *time.Time          `json:"resolution_date,omitempty"`
	Status         domain.MarketStatus `json:"status"`
	ImageURL       string              `json:"image_url,omitempty"`
	Slug           string              `json:"slug,omitempty"`
}

// FeedPage is one page of the market feed listing.
type FeedPage struct {
	Markets []MarketCard `json:"markets"`
	Total   int64        `json:"total"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
}

// FeedService serves the editorial feed and the paginated market feed.
type FeedService struct {
	markets   domain.MarketStore
	snapshots domain.SnapshotStore
	cache     domain.FeedCache
	engine    *editorial.Engine

	feedLimit    int
	feedTTL      time.Duration
	editorialTTL time.Duration

	logger *slog.Logger
	now    func() time.Time
}

// NewFeedService wires a FeedService. feedLimit caps how many rows one feed
// computation loads.
func NewFeedService(
	markets domain.MarketStore,
	snapshots domain.SnapshotStore,
	cache domain.FeedCache,
	engine *editorial.Engine,
	feedLimit int,
	feedTTL, editorialTTL time.Duration,
	logger *slog.Logger,
) *FeedService {
	return &FeedService{
		markets:      markets,
		snapshots:    snapshots,
		cache:        cache,
		engine:       engine,
		feedLimit:    feedLimit,
		feedTTL:      feedTTL,
		editorialTTL: editorialTTL,
		logger:       logger.With(slog.String("component", "feed_service")),
		now:          time.Now,
	}
}

// EditorialFeed returns the fully composed layout for one category, or for
// all categories when category is empty. The composed layout is cached
// briefly so a burst of page loads costs one computation.
func (s *FeedService) EditorialFeed(ctx context.Context, category domain.Category) (domain.FeedLayout, error) {
	if err := validateCategory(category); err != nil {
		return domain.FeedLayout{}, err
	}

	key := "polynews:editorial_feed:" + categoryOrAll(category)

	var layout domain.FeedLayout
	if hit := s.cacheGet(ctx, key, &layout); hit {
		return layout, nil
	}

	rows, err := s.snapshots.FeedRows(ctx, category, s.feedLimit)
	if err != nil {
		return domain.FeedLayout{}, fmt.Errorf("service: load feed rows: %w", err)
	}
	resolved, err := s.snapshots.ResolvedRows(ctx, resolvedWindow, resolvedLimit)
	if err != nil {
		return domain.FeedLayout{}, fmt.Errorf("service: load resolved rows: %w", err)
	}

	total, err := s.markets.CountActive(ctx, category)
	if err != nil {
		return domain.FeedLayout{}, fmt.Errorf("service: count markets: %w", err)
	}
	lastSync, err := s.snapshots.LastSync(ctx)
	if err != nil {
		return domain.FeedLayout{}, fmt.Errorf("service: last sync: %w", err)
	}

	meta := domain.FeedMeta{
		TotalMarkets:  total,
		LastSync:      lastSync,
		SourcesStatus: map[string]string{"polymarket": "connected"},
	}
	layout = s.engine.Compose(rows, resolved, meta)

	s.cacheSet(ctx, key, layout, s.editorialTTL)
	return layout, nil
}

// MarketsFeed returns one sorted, paginated page of active market cards.
func (s *FeedService) MarketsFeed(ctx context.Context, q FeedQuery) (FeedPage, error) {
	q, err := normalizeQuery(q)
	if err != nil {
		return FeedPage{}, err
	}

	key := fmt.Sprintf("polynews:feed:%s:%s:%d:%d", categoryOrAll(q.Category), q.Sort, q.Limit, q.Offset)

	var page FeedPage
	if hit := s.cacheGet(ctx, key, &page); hit {
		return page, nil
	}

	rows, err := s.snapshots.FeedRows(ctx, q.Category, s.feedLimit)
	if err != nil {
		return FeedPage{}, fmt.Errorf("service: load feed rows: %w", err)
	}
	total, err := s.markets.CountActive(ctx, q.Category)
	if err != nil {
		return FeedPage{}, fmt.Errorf("service: count markets: %w", err)
	}

	s.sortRows(rows, q.Sort, total)

	page = FeedPage{
		Markets: buildCards(paginate(rows, q.Offset, q.Limit)),
		Total:   total,
		Limit:   q.Limit,
		Offset:  q.Offset,
	}

	s.cacheSet(ctx, key, page, s.feedTTL)
	return page, nil
}

// sortRows orders rows in place. Trending is pure price movement; the
// interesting sort blends movement, volume rank, resolution urgency, and
// price uncertainty.
func (s *FeedService) sortRows(rows []domain.FeedRow, sortOrder string, total int64) {
	switch sortOrder {
	case SortTrending:
		sort.SliceStable(rows, func(i, j int) bool {
			di, dj := rowDelta(rows[i]), rowDelta(rows[j])
			if di != dj {
				return di > dj
			}
			return rows[i].Volume > rows[j].Volume
		})
	case SortInteresting:
		now := s.now().UTC()
		scores := make(map[string]float64, len(rows))
		for _, r := range rows {
			scores[r.ID] = editorial.InterestingScore(
				rowDelta(r), r.VolumeRank, int(total), r.ResolutionDate, r.CurrentPrice, now,
			)
		}
		sort.SliceStable(rows, func(i, j int) bool {
			return scores[rows[i].ID] > scores[rows[j].ID]
		})
	}
}

func (s *FeedService) cacheGet(ctx context.Context, key string, dst any) bool {
	err := s.cache.Get(ctx, key, dst)
	if err == nil {
		return true
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn("cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return false
}

func (s *FeedService) cacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func normalizeQuery(q FeedQuery) (FeedQuery, error) {
	if err := validateCategory(q.Category); err != nil {
		return q, err
	}
	if q.Sort == "" {
		q.Sort = SortInteresting
	}
	if q.Sort != SortTrending && q.Sort != SortInteresting {
		return q, fmt.Errorf("service: sort %q: %w", q.Sort, domain.ErrInvalidInput)
	}
	if q.Limit == 0 {
		q.Limit = defaultPage
	}
	if q.Limit < 1 || q.Limit > maxPageSize {
		return q, fmt.Errorf("service: limit %d out of range 1-%d: %w", q.Limit, maxPageSize, domain.ErrInvalidInput)
	}
	if q.Offset < 0 {
		return q, fmt.Errorf("service: offset %d: %w", q.Offset, domain.ErrInvalidInput)
	}
	return q, nil
}

func validateCategory(c domain.Category) error {
	if c != "" && !domain.ValidCategory(string(c)) {
		return fmt.Errorf("service: category %q: %w", c, domain.ErrInvalidInput)
	}
	return nil
}

func categoryOrAll(c domain.Category) string {
	if c == "" {
		return "all"
	}
	return string(c)
}

// rowDelta is the absolute 24h price movement, zero when no 24h-ago
// snapshot exists yet.
func rowDelta(r domain.FeedRow) float64 {
	if r.Price24hAgo == nil {
		return 0
	}
	return math.Abs(r.CurrentPrice - *r.Price24hAgo)
}

func paginate(rows []domain.FeedRow, offset, limit int) []domain.FeedRow {
	if offset >= len(rows) {
		return nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func buildCards(rows []domain.FeedRow) []MarketCard {
	cards := make([]MarketCard, 0, len(rows))
	for _, r := range rows {
		card := MarketCard{
			ID:             r.ID,
			Question:       r.Question,
			Category:       r.Category,
			CurrentPrice:   r.CurrentPrice,
			Price24hAgo:    r.Price24hAgo,
			Volume:         r.Volume,
			ResolutionDate: r.ResolutionDate,
			Status:         r.Status,
			ImageURL:       r.ImageURL,
			Slug:           r.Slug,
		}
		if r.Price24hAgo != nil {
			d := rowDelta(r)
			card.Delta = &d
		}
		cards = append(cards, card)
	}
	return cards
}
