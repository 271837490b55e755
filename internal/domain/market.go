package domain

import "time"

// MarketStatus represents the lifecycle state of a market. Markets only ever
// move active -> resolved; rows are never deleted.
type MarketStatus string

const (
	MarketStatusActive   MarketStatus = "active"
	MarketStatusResolved MarketStatus = "resolved"
)

// Market represents a prediction market proposition as stored.
type Market struct {
	ID               string       `json:"id"`
	Question         string       `json:"question"`
	Description      string       `json:"description,omitempty"`
	Category         Category     `json:"category"`
	ResolutionDate   *time.Time   `json:"resolution_date,omitempty"`
	ClosedTime       *time.Time   `json:"closed_time,omitempty"`
	ResolutionStatus string       `json:"resolution_status,omitempty"`
	Status           MarketStatus `json:"status"`
	CreatedAt        time.Time    `json:"created_at"`
	LastUpdated      time.Time    `json:"last_updated"`
	Outcomes         []string     `json:"outcomes,omitempty"`
	ImageURL         string       `json:"image_url,omitempty"`
	Slug             string       `json:"slug,omitempty"`
}

// Snapshot is one immutable price observation for a market. Uniqueness on
// (MarketID, Timestamp) makes re-ingestion within the same tick a no-op.
type Snapshot struct {
	MarketID     string    `json:"market_id"`
	Timestamp    time.Time `json:"timestamp"`
	YesPrice     float64   `json:"yes_price"`
	NoPrice      float64   `json:"no_price"`
	Volume       float64   `json:"volume"`
	OpenInterest float64   `json:"open_interest"`
}

// IngestedMarket is the normalized result of parsing one upstream market:
// the market metadata plus the price observation for the current cycle and
// any field-level anomalies encountered while parsing.
type IngestedMarket struct {
	Market
	YesPrice     float64
	NoPrice      float64
	Volume       float64
	OpenInterest float64
	Anomalies    []string
}

// IngestionError records a single per-market ingestion failure.
type IngestionError struct {
	MarketID   string
	Timestamp  time.Time
	Message    string
	RetryCount int
}

// PricePoint is one point of a market's price history series.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// FeedRow is the joined market + snapshot shape the curation and feed
// queries load: every field needed to build an EditorialMarket or a card.
type FeedRow struct {
	ID             string
	Question       string
	Category       Category
	ResolutionDate *time.Time
	Status         MarketStatus
	Slug           string
	ImageURL       string
	CurrentPrice   float64
	Price24hAgo    *float64
	Volume         float64
	VolumeRank     int
}
