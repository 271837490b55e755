package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/polynews/backend/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

var _ domain.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore creates a new SnapshotStore backed by the given pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Insert appends one snapshot. A duplicate (market_id, timestamp) pair is a
// silent no-op, which makes re-ingestion within a cycle idempotent.
func (s *SnapshotStore) Insert(ctx context.Context, snap domain.Snapshot) error {
	const query = `
		INSERT INTO snapshots (market_id, timestamp, yes_price, no_price, volume, open_interest)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (market_id, timestamp) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		snap.MarketID, snap.Timestamp, snap.YesPrice, snap.NoPrice, snap.Volume, snap.OpenInterest)
	if err != nil {
		return fmt.Errorf("postgres: insert snapshot %s: %w", snap.MarketID, err)
	}
	return nil
}

// feedRowsQuery joins each active market with its latest snapshot, its
// newest snapshot at least 24h old, and its 24h volume rank.
const feedRowsQuery = `
	WITH latest_snap AS (
		SELECT DISTINCT ON (s.market_id)
			s.market_id,
			s.yes_price AS current_price,
			s.volume
		FROM snapshots s
		ORDER BY s.market_id, s.timestamp DESC
	),
	day_ago_snap AS (
		SELECT DISTINCT ON (s.market_id)
			s.market_id,
			s.yes_price AS price_24h_ago
		FROM snapshots s
		WHERE s.timestamp <= NOW() - INTERVAL '24 hours'
		ORDER BY s.market_id, s.timestamp DESC
	),
	vol_ranks AS (
		SELECT
			market_id,
			RANK() OVER (ORDER BY SUM(volume) DESC) AS volume_rank
		FROM snapshots
		WHERE timestamp >= NOW() - INTERVAL '24 hours'
		GROUP BY market_id
	)
	SELECT
		m.id,
		m.question,
		m.category,
		m.resolution_date,
		m.status,
		COALESCE(m.slug, ''),
		COALESCE(m.image_url, ''),
		COALESCE(ls.current_price, 0.5) AS current_price,
		d.price_24h_ago,
		COALESCE(ls.volume, 0) AS volume,
		COALESCE(vr.volume_rank, 9999) AS volume_rank
	FROM markets m
	LEFT JOIN latest_snap ls ON m.id = ls.market_id
	LEFT JOIN day_ago_snap d ON m.id = d.market_id
	LEFT JOIN vol_ranks vr ON m.id = vr.market_id
	WHERE m.status = 'active'`

// FeedRows returns active markets joined with snapshot data, ordered by
// volume descending. An empty category returns all categories.
func (s *SnapshotStore) FeedRows(ctx context.Context, category domain.Category, limit int) ([]domain.FeedRow, error) {
	query := feedRowsQuery
	args := []any{}
	if category != "" {
		query += ` AND m.category = $1 ORDER BY COALESCE(ls.volume, 0) DESC LIMIT $2`
		args = append(args, string(category), limit)
	} else {
		query += ` ORDER BY COALESCE(ls.volume, 0) DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: feed rows: %w", err)
	}
	defer rows.Close()

	return scanFeedRows(rows)
}

// ResolvedRows returns markets that resolved (closed or last updated)
// within the window, newest first.
func (s *SnapshotStore) ResolvedRows(ctx context.Context, within time.Duration, limit int) ([]domain.FeedRow, error) {
	const query = `
		WITH latest_snap AS (
			SELECT DISTINCT ON (s.market_id)
				s.market_id,
				s.yes_price AS current_price,
				s.volume
			FROM snapshots s
			ORDER BY s.market_id, s.timestamp DESC
		)
		SELECT
			m.id,
			m.question,
			m.category,
			m.resolution_date,
			m.status,
			COALESCE(m.slug, ''),
			COALESCE(m.image_url, ''),
			COALESCE(ls.current_price, 0.5) AS current_price,
			NULL::double precision AS price_24h_ago,
			COALESCE(ls.volume, 0) AS volume,
			9999 AS volume_rank
		FROM markets m
		LEFT JOIN latest_snap ls ON m.id = ls.market_id
		WHERE m.status = 'resolved'
		  AND COALESCE(m.closed_time, m.last_updated) >= NOW() - $1::interval
		ORDER BY COALESCE(m.closed_time, m.last_updated) DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, within, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: resolved rows: %w", err)
	}
	defer rows.Close()

	return scanFeedRows(rows)
}

func scanFeedRows(rows pgx.Rows) ([]domain.FeedRow, error) {
	var out []domain.FeedRow
	for rows.Next() {
		var (
			r        domain.FeedRow
			category string
			status   string
		)
		if err := rows.Scan(
			&r.ID, &r.Question, &category, &r.ResolutionDate, &status,
			&r.Slug, &r.ImageURL, &r.CurrentPrice, &r.Price24hAgo,
			&r.Volume, &r.VolumeRank,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan feed row: %w", err)
		}
		r.Category = domain.Category(category)
		r.Status = domain.MarketStatus(status)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: feed rows: %w", err)
	}
	return out, nil
}

// Latest returns the most recent snapshot for a market.
func (s *SnapshotStore) Latest(ctx context.Context, marketID string) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := s.pool.QueryRow(ctx,
		`SELECT market_id, timestamp, yes_price, no_price, volume, open_interest
		 FROM snapshots
		 WHERE market_id = $1
		 ORDER BY timestamp DESC
		 LIMIT 1`, marketID).Scan(
		&snap.MarketID, &snap.Timestamp, &snap.YesPrice, &snap.NoPrice,
		&snap.Volume, &snap.OpenInterest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, domain.ErrNotFound
		}
		return domain.Snapshot{}, fmt.Errorf("postgres: latest snapshot %s: %w", marketID, err)
	}
	return snap, nil
}

// DayAgoPrice returns the market's newest yes price at least 24h old, or
// nil when the market has no history that far back.
func (s *SnapshotStore) DayAgoPrice(ctx context.Context, marketID string) (*float64, error) {
	var price float64
	err := s.pool.QueryRow(ctx,
		`SELECT yes_price
		 FROM snapshots
		 WHERE market_id = $1 AND timestamp <= NOW() - INTERVAL '24 hours'
		 ORDER BY timestamp DESC
		 LIMIT 1`, marketID).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: day-ago price %s: %w", marketID, err)
	}
	return &price, nil
}

// History returns the market's price series since the given time, oldest
// first.
func (s *SnapshotStore) History(ctx context.Context, marketID string, since time.Time) ([]domain.PricePoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT timestamp, yes_price
		 FROM snapshots
		 WHERE market_id = $1 AND timestamp >= $2
		 ORDER BY timestamp ASC`, marketID, since)
	if err != nil {
		return nil, fmt.Errorf("postgres: history %s: %w", marketID, err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.Timestamp, &p.Price); err != nil {
			return nil, fmt.Errorf("postgres: scan history point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: history rows: %w", err)
	}
	return points, nil
}

// LastSync returns the timestamp of the most recent snapshot across all
// markets, or nil when nothing has been ingested yet.
func (s *SnapshotStore) LastSync(ctx context.Context) (*time.Time, error) {
	var ts *time.Time
	err := s.pool.QueryRow(ctx, `SELECT MAX(timestamp) FROM snapshots`).Scan(&ts)
	if err != nil {
		return nil, fmt.Errorf("postgres: last sync: %w", err)
	}
	return ts, nil
}

// RefreshTrending refreshes the trending materialized view.
func (s *SnapshotStore) RefreshTrending(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `SELECT refresh_trending_view()`); err != nil {
		return fmt.Errorf("postgres: refresh trending view: %w", err)
	}
	return nil
}

// ListBefore returns snapshots older than the cutoff, oldest first. Used by
// the cold-storage archiver.
func (s *SnapshotStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Snapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT market_id, timestamp, yes_price, no_price, volume, open_interest
		 FROM snapshots
		 WHERE timestamp < $1
		 ORDER BY timestamp ASC`, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list snapshots before %s: %w", before, err)
	}
	defer rows.Close()

	var snaps []domain.Snapshot
	for rows.Next() {
		var snap domain.Snapshot
		if err := rows.Scan(&snap.MarketID, &snap.Timestamp, &snap.YesPrice,
			&snap.NoPrice, &snap.Volume, &snap.OpenInterest); err != nil {
			return nil, fmt.Errorf("postgres: scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list snapshots rows: %w", err)
	}
	return snaps, nil
}

// DeleteBefore removes snapshots older than the cutoff and returns the
// number of rows deleted.
func (s *SnapshotStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM snapshots WHERE timestamp < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete snapshots before %s: %w", before, err)
	}
	return tag.RowsAffected(), nil
}
