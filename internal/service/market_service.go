package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/polynews/backend/internal/domain"
)

const historyWindow = 7 * 24 * time.Hour

// MarketDetail is the full market shape served by the detail endpoint,
// combining stored metadata with the latest snapshot and a price history
// series.
type MarketDetail struct {
	ID             string              `json:"id"`
	Question       string              `json:"question"`
	Description    string              `json:"description,omitempty"`
	Category       domain.Category     `json:"category"`
	CurrentPrice   float64             `json:"current_price"`
	Price24hAgo    *float64            `json:"price_24h_ago,omitempty"`
	Delta          *float64            `json:"delta,omitempty"`
	Volume         float64             `json:"volume"`
	OpenInterest   float64             `json:"open_interest"`
	ResolutionDate *time.Time          `json:"resolution_date,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	Status         domain.MarketStatus `json:"status"`
	Outcomes       []string            `json:"outcomes,omitempty"`
	ImageURL       string              `json:"image_url,omitempty"`
	Slug           string              `json:"slug,omitempty"`
	LastUpdated    time.Time           `json:"last_updated"`
	PriceHistory   []domain.PricePoint `json:"price_history"`
}

// MarketService serves market detail and the category taxonomy.
type MarketService struct {
	markets   domain.MarketStore
	snapshots domain.SnapshotStore
	cache     domain.FeedCache

	marketTTL   time.Duration
	categoryTTL time.Duration

	logger *slog.Logger
	now    func() time.Time
}

// NewMarketService wires a MarketService.
func NewMarketService(
	markets domain.MarketStore,
	snapshots domain.SnapshotStore,
	cache domain.FeedCache,
	marketTTL, categoryTTL time.Duration,
	logger *slog.Logger,
) *MarketService {
	return &MarketService{
		markets:     markets,
		snapshots:   snapshots,
		cache:       cache,
		marketTTL:   marketTTL,
		categoryTTL: categoryTTL,
		logger:      logger.With(slog.String("component", "market_service")),
		now:         time.Now,
	}
}

// Detail returns one market with its latest snapshot, 24h movement, and a
// 7-day price history. Returns domain.ErrNotFound for unknown ids. A market
// that exists but has no snapshot yet is served at the 0.5 default price.
func (s *MarketService) Detail(ctx context.Context, id string) (MarketDetail, error) {
	key := "polynews:market:" + id

	var detail MarketDetail
	if hit := s.marketCacheGet(ctx, key, &detail); hit {
		return detail, nil
	}

	market, err := s.markets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return MarketDetail{}, err
		}
		return MarketDetail{}, fmt.Errorf("service: load market: %w", err)
	}

	detail = MarketDetail{
		ID:             market.ID,
		Question:       market.Question,
		Description:    market.Description,
		Category:       market.Category,
		CurrentPrice:   0.5,
		ResolutionDate: market.ResolutionDate,
		CreatedAt:      market.CreatedAt,
		Status:         market.Status,
		Outcomes:       market.Outcomes,
		ImageURL:       market.ImageURL,
		Slug:           market.Slug,
		LastUpdated:    market.LastUpdated,
		PriceHistory:   []domain.PricePoint{},
	}

	latest, err := s.snapshots.Latest(ctx, id)
	switch {
	case err == nil:
		detail.CurrentPrice = latest.YesPrice
		detail.Volume = latest.Volume
		detail.OpenInterest = latest.OpenInterest
	case !errors.Is(err, domain.ErrNotFound):
		return MarketDetail{}, fmt.Errorf("service: latest snapshot: %w", err)
	}

	dayAgo, err := s.snapshots.DayAgoPrice(ctx, id)
	if err != nil {
		return MarketDetail{}, fmt.Errorf("service: day-ago price: %w", err)
	}
	if dayAgo != nil {
		detail.Price24hAgo = dayAgo
		d := math.Abs(detail.CurrentPrice - *dayAgo)
		detail.Delta = &d
	}

	history, err := s.snapshots.History(ctx, id, s.now().UTC().Add(-historyWindow))
	if err != nil {
		return MarketDetail{}, fmt.Errorf("service: price history: %w", err)
	}
	if len(history) > 0 {
		detail.PriceHistory = history
	}

	s.marketCacheSet(ctx, key, detail, s.marketTTL)
	return detail, nil
}

// categoryNames maps taxonomy slugs to display names.
var categoryNames = map[domain.Category]string{
	domain.CategoryPolitics: "Politics",
	domain.CategoryCrypto:   "Crypto",
	domain.CategorySports:   "Sports",
	domain.CategoryTech:     "Tech",
	domain.CategoryOther:    "Other",
}

// Categories returns the fixed taxonomy with active market counts and the
// top featured market ids per category.
func (s *MarketService) Categories(ctx context.Context) ([]domain.CategoryInfo, error) {
	const key = "polynews:categories"

	var infos []domain.CategoryInfo
	if hit := s.marketCacheGet(ctx, key, &infos); hit {
		return infos, nil
	}

	infos = make([]domain.CategoryInfo, 0, len(domain.Categories))
	for _, cat := range domain.Categories {
		count, err := s.markets.CountActive(ctx, cat)
		if err != nil {
			return nil, fmt.Errorf("service: count category %s: %w", cat, err)
		}
		featured, err := s.markets.FeaturedIDs(ctx, cat, 10)
		if err != nil {
			return nil, fmt.Errorf("service: featured ids %s: %w", cat, err)
		}
		infos = append(infos, domain.CategoryInfo{
			Name:              categoryNames[cat],
			Slug:              cat,
			MarketCount:       count,
			FeaturedMarketIDs: featured,
		})
	}

	s.marketCacheSet(ctx, key, infos, s.categoryTTL)
	return infos, nil
}

func (s *MarketService) marketCacheGet(ctx context.Context, key string, dst any) bool {
	err := s.cache.Get(ctx, key, dst)
	if err == nil {
		return true
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn("cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return false
}

func (s *MarketService) marketCacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}
