package domain

import (
	"context"
	"time"
)

// MarketStore persists market metadata.
type MarketStore interface {
	// Upsert inserts or updates a single market by id.
	Upsert(ctx context.Context, m Market) error
	GetByID(ctx context.Context, id string) (Market, error)

	// ListStaleActive returns markets still marked active whose resolution
	// deadline has passed and which were last updated before the given
	// cutoff. Used by the staleness-reconciliation pass.
	ListStaleActive(ctx context.Context, updatedBefore time.Time, limit int) ([]Market, error)

	// CountActivePastDeadline counts active markets whose resolution
	// deadline is already in the past (data-quality check).
	CountActivePastDeadline(ctx context.Context) (int64, error)

	// CountActive counts active markets, optionally filtered by category
	// (empty category means all).
	CountActive(ctx context.Context, category Category) (int64, error)

	// FeaturedIDs returns the top market ids in a category by latest
	// snapshot volume.
	FeaturedIDs(ctx context.Context, category Category, limit int) ([]string, error)
}

// SnapshotStore persists the append-only price snapshot series and serves
// the joined read queries of the feed.
type SnapshotStore interface {
	// Insert appends one snapshot. Inserting a (market, timestamp) pair
	// that already exists is a silent no-op.
	Insert(ctx context.Context, s Snapshot) error

	// FeedRows returns active markets joined with their latest and 24h-ago
	// snapshots, ordered by volume descending.
	FeedRows(ctx context.Context, category Category, limit int) ([]FeedRow, error)

	// ResolvedRows returns recently resolved markets (closed or updated
	// within the window), newest first.
	ResolvedRows(ctx context.Context, within time.Duration, limit int) ([]FeedRow, error)

	Latest(ctx context.Context, marketID string) (Snapshot, error)
	DayAgoPrice(ctx context.Context, marketID string) (*float64, error)
	History(ctx context.Context, marketID string, since time.Time) ([]PricePoint, error)

	// LastSync returns the timestamp of the most recent snapshot, or nil
	// when no snapshot exists yet.
	LastSync(ctx context.Context) (*time.Time, error)

	// RefreshTrending refreshes the precomputed trending aggregate.
	RefreshTrending(ctx context.Context) error

	// ListBefore and DeleteBefore support cold-storage archival of aged
	// snapshot rows.
	ListBefore(ctx context.Context, before time.Time) ([]Snapshot, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// IngestionErrorStore records per-market ingestion failures.
type IngestionErrorStore interface {
	Insert(ctx context.Context, e IngestionError) error
}
