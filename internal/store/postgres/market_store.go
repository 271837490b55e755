package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/polynews/backend/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *pgxpool.Pool
}

var _ domain.MarketStore = (*MarketStore)(nil)

// NewMarketStore creates a new MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

// Upsert inserts or updates a single market. created_at is only written on
// first insert; conflicting rows keep their original creation time.
func (s *MarketStore) Upsert(ctx context.Context, m domain.Market) error {
	const query = `
		INSERT INTO markets (
			id, question, description, category,
			resolution_date, closed_time, resolution_status, status,
			created_at, last_updated, outcomes, image_url, slug
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12, $13
		)
		ON CONFLICT (id) DO UPDATE SET
			question          = EXCLUDED.question,
			description       = EXCLUDED.description,
			category          = EXCLUDED.category,
			resolution_date   = EXCLUDED.resolution_date,
			closed_time       = EXCLUDED.closed_time,
			resolution_status = EXCLUDED.resolution_status,
			status            = EXCLUDED.status,
			last_updated      = EXCLUDED.last_updated,
			outcomes          = EXCLUDED.outcomes,
			image_url         = EXCLUDED.image_url,
			slug              = EXCLUDED.slug`

	var outcomes any
	if len(m.Outcomes) > 0 {
		data, err := json.Marshal(m.Outcomes)
		if err != nil {
			return fmt.Errorf("postgres: marshal outcomes for %s: %w", m.ID, err)
		}
		outcomes = data
	}

	_, err := s.pool.Exec(ctx, query,
		m.ID, m.Question, nullStr(m.Description), string(m.Category),
		m.ResolutionDate, m.ClosedTime, nullStr(m.ResolutionStatus), string(m.Status),
		m.CreatedAt, m.LastUpdated, outcomes, nullStr(m.ImageURL), nullStr(m.Slug),
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert market %s: %w", m.ID, err)
	}
	return nil
}

const marketCols = `id, question, COALESCE(description, ''), category,
	resolution_date, closed_time, COALESCE(resolution_status, ''), status,
	created_at, last_updated, outcomes, COALESCE(image_url, ''), COALESCE(slug, '')`

// scanMarket scans a single market row into a domain.Market.
func scanMarket(row pgx.Row) (domain.Market, error) {
	var (
		m        domain.Market
		category string
		status   string
		outcomes []byte
	)
	err := row.Scan(
		&m.ID, &m.Question, &m.Description, &category,
		&m.ResolutionDate, &m.ClosedTime, &m.ResolutionStatus, &status,
		&m.CreatedAt, &m.LastUpdated, &outcomes, &m.ImageURL, &m.Slug,
	)
	if err != nil {
		return domain.Market{}, err
	}
	m.Category = domain.Category(category)
	m.Status = domain.MarketStatus(status)
	if len(outcomes) > 0 {
		if err := json.Unmarshal(outcomes, &m.Outcomes); err != nil {
			return domain.Market{}, fmt.Errorf("unmarshal outcomes: %w", err)
		}
	}
	return m, nil
}

// GetByID retrieves a market by its primary key.
func (s *MarketStore) GetByID(ctx context.Context, id string) (domain.Market, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+marketCols+` FROM markets WHERE id = $1`, id)
	m, err := scanMarket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: get market %s: %w", id, err)
	}
	return m, nil
}

// ListStaleActive returns markets still marked active whose resolution
// deadline has passed and whose last update predates the cutoff.
func (s *MarketStore) ListStaleActive(ctx context.Context, updatedBefore time.Time, limit int) ([]domain.Market, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+marketCols+` FROM markets
		 WHERE status = 'active'
		   AND resolution_date IS NOT NULL
		   AND resolution_date < NOW()
		   AND last_updated < $1
		 ORDER BY last_updated ASC
		 LIMIT $2`,
		updatedBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list stale active markets: %w", err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan stale market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list stale active markets rows: %w", err)
	}
	return markets, nil
}

// CountActivePastDeadline counts active markets whose resolution deadline is
// already in the past.
func (s *MarketStore) CountActivePastDeadline(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM markets
		 WHERE status = 'active'
		   AND resolution_date IS NOT NULL
		   AND resolution_date < NOW()`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count active past deadline: %w", err)
	}
	return count, nil
}

// CountActive counts active markets, optionally filtered by category.
func (s *MarketStore) CountActive(ctx context.Context, category domain.Category) (int64, error) {
	var (
		count int64
		err   error
	)
	if category == "" {
		err = s.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM markets WHERE status = 'active'`).Scan(&count)
	} else {
		err = s.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM markets WHERE status = 'active' AND category = $1`,
			string(category)).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("postgres: count active markets: %w", err)
	}
	return count, nil
}

// FeaturedIDs returns the top market ids in a category by latest snapshot
// volume.
func (s *MarketStore) FeaturedIDs(ctx context.Context, category domain.Category, limit int) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT m.id
		 FROM markets m
		 LEFT JOIN (
		     SELECT DISTINCT ON (market_id) market_id, volume
		     FROM snapshots
		     ORDER BY market_id, timestamp DESC
		 ) s ON m.id = s.market_id
		 WHERE m.category = $1 AND m.status = 'active'
		 ORDER BY COALESCE(s.volume, 0) DESC
		 LIMIT $2`,
		string(category), limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: featured ids for %s: %w", category, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan featured id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: featured ids rows: %w", err)
	}
	return ids, nil
}

// nullStr maps the empty string to SQL NULL.
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
