package editorial

import (
	"math"

	"github.com/polynews/backend/internal/domain"
)

// Engine assembles the full editorial feed layout from raw feed rows. All
// of its methods are pure: every input is an explicit argument and nothing
// touches the store or cache.
type Engine struct {
	clusterer  *Clusterer
	params     NewsworthinessParams
	tickerSize int
	moversSize int
}

// NewEngine builds an Engine with the default clustering rules.
func NewEngine(params NewsworthinessParams, tickerSize, moversSize int) *Engine {
	if tickerSize <= 0 {
		tickerSize = 8
	}
	if moversSize <= 0 {
		moversSize = 8
	}
	return &Engine{
		clusterer:  NewClusterer(nil),
		params:     params,
		tickerSize: tickerSize,
		moversSize: moversSize,
	}
}

// BuildMarket converts a raw feed row to an editorial market: derives the
// signed 24h change, probability, headline, and card summary.
func BuildMarket(row domain.FeedRow) *domain.EditorialMarket {
	changePct := 0.0
	if row.Price24hAgo != nil {
		changePct = (row.CurrentPrice - *row.Price24hAgo) * 100
	}
	probability := int(math.Round(row.CurrentPrice * 100))

	return &domain.EditorialMarket{
		ID:             row.ID,
		Question:       row.Question,
		Headline:       ToHeadline(row.Question, probability),
		Summary:        CardSummary(probability, changePct),
		Category:       row.Category,
		CurrentPrice:   row.CurrentPrice,
		Probability:    probability,
		Price24hAgo:    row.Price24hAgo,
		Change24h:      round1(changePct),
		Volume:         row.Volume,
		ResolutionDate: row.ResolutionDate,
		Status:         row.Status,
		Slug:           row.Slug,
		ImageURL:       row.ImageURL,
	}
}

// Compose builds the complete editorial layout: clusters, hero, sections,
// ticker, movers, and the recently-resolved rail. rows are active markets
// ordered by volume descending; resolved are markets that settled recently.
func (e *Engine) Compose(rows, resolved []domain.FeedRow, meta domain.FeedMeta) domain.FeedLayout {
	all := make([]*domain.EditorialMarket, 0, len(rows))
	for _, row := range rows {
		all = append(all, BuildMarket(row))
	}

	// Clustering runs first so hero dedup sees cluster ids.
	clusters := e.clusterer.Cluster(all)

	primary, secondary := SelectHero(all, e.params)
	heroIDs := make(map[string]bool)
	hero := domain.Hero{}
	if primary != nil {
		heroIDs[primary.ID] = true
		p := *primary
		hero.Primary = &p
	}
	for _, s := range secondary {
		heroIDs[s.ID] = true
		hero.Secondary = append(hero.Secondary, *s)
	}

	sections := AssignSections(all, heroIDs)
	ticker := SelectTicker(all, e.tickerSize)
	movers := SelectMovers(all, e.moversSize)

	recentlyResolved := make([]domain.EditorialMarket, 0, len(resolved))
	for _, row := range resolved {
		recentlyResolved = append(recentlyResolved, *BuildMarket(row))
	}

	return domain.FeedLayout{
		Hero:             hero,
		Clusters:         clusters,
		Sections:         sections,
		Ticker:           ticker,
		Movers:           movers,
		RecentlyResolved: recentlyResolved,
		Meta:             meta,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
