package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/polynews/backend/internal/domain"
)

// IngestionErrorStore implements domain.IngestionErrorStore using PostgreSQL.
type IngestionErrorStore struct {
	pool *pgxpool.Pool
}

var _ domain.IngestionErrorStore = (*IngestionErrorStore)(nil)

// NewIngestionErrorStore creates a new IngestionErrorStore.
func NewIngestionErrorStore(pool *pgxpool.Pool) *IngestionErrorStore {
	return &IngestionErrorStore{pool: pool}
}

// Insert records one per-market ingestion failure. Messages are truncated
// to keep the table bounded no matter what the upstream error contains.
func (s *IngestionErrorStore) Insert(ctx context.Context, e domain.IngestionError) error {
	msg := e.Message
	if len(msg) > 500 {
		msg = msg[:500]
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO ingestion_errors (market_id, error_message, retry_count)
		 VALUES ($1, $2, $3)`,
		e.MarketID, msg, e.RetryCount)
	if err != nil {
		return fmt.Errorf("postgres: insert ingestion error for %s: %w", e.MarketID, err)
	}
	return nil
}
