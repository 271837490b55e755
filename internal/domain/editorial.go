package domain

import "time"

// EditorialMarket is a market enriched with the computed fields one curation
// pass needs. It exists only for the lifetime of one feed computation and is
// never persisted.
type EditorialMarket struct {
	ID             string       `json:"id"`
	Question       string       `json:"question"`
	Headline       string       `json:"headline"`
	Summary        string       `json:"summary"`
	Category       Category     `json:"category"`
	CurrentPrice   float64      `json:"current_price"`
	Probability    int          `json:"probability"`
	Price24hAgo    *float64     `json:"price_24h_ago,omitempty"`
	Change24h      float64      `json:"change_24h"`
	Volume         float64      `json:"volume"`
	ResolutionDate *time.Time   `json:"resolution_date,omitempty"`
	Status         MarketStatus `json:"status"`
	Slug           string       `json:"slug,omitempty"`
	ImageURL       string       `json:"image_url,omitempty"`
	ClusterID      *int         `json:"cluster_id,omitempty"`
}

// Cluster groups >=3 markets that are thresholds of the same underlying
// question. Ids are sequential within one computation and not stable across
// computations.
type Cluster struct {
	ID      int               `json:"id"`
	Title   string            `json:"title"`
	Tag     string            `json:"tag"`
	Markets []EditorialMarket `json:"markets"`
}

// Hero is the lead section of the feed: one primary market plus up to two
// secondary markets.
type Hero struct {
	Primary   *EditorialMarket  `json:"primary"`
	Secondary []EditorialMarket `json:"secondary"`
}

// FeedSection is one labeled block of the feed with card rendering hints.
type FeedSection struct {
	Label       string            `json:"label"`
	Type        string            `json:"type"`
	CardVariant string            `json:"card_variant"`
	GridCols    int               `json:"grid_cols"`
	Markets     []EditorialMarket `json:"markets"`
}

// TickerItem is one entry of the scrolling ticker bar.
type TickerItem struct {
	Label       string  `json:"label"`
	Change      float64 `json:"change"`
	Probability int     `json:"probability"`
}

// FeedMeta carries feed-level metadata.
type FeedMeta struct {
	TotalMarkets  int64             `json:"total_markets"`
	LastSync      *time.Time        `json:"last_sync,omitempty"`
	SourcesStatus map[string]string `json:"sources_status"`
}

// FeedLayout is the full composed editorial feed. Invariant: a market id
// never appears in both the hero and a section's market list within one
// computation; ticker and movers are independent surfaces and may overlap
// with anything.
type FeedLayout struct {
	Hero             Hero              `json:"hero"`
	Clusters         []Cluster         `json:"clusters"`
	Sections         []FeedSection     `json:"sections"`
	Ticker           []TickerItem      `json:"ticker"`
	Movers           []EditorialMarket `json:"movers"`
	RecentlyResolved []EditorialMarket `json:"recently_resolved"`
	Meta             FeedMeta          `json:"meta"`
}

// CategoryInfo describes one taxonomy entry with counts and featured ids.
type CategoryInfo struct {
	Name              string   `json:"name"`
	Slug              Category `json:"slug"`
	MarketCount       int64    `json:"market_count"`
	FeaturedMarketIDs []string `json:"featured_market_ids"`
}
