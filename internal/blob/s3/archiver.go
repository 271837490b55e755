package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/polynews/backend/internal/domain"
)

const contentTypeNDJSON = "application/x-ndjson"

// ObjectWriter is the upload surface the archiver needs.
type ObjectWriter interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
}

// Archiver exports snapshots older than the retention window to one JSONL
// object per market-day. Exported rows are only deleted from the primary
// store when pruning is enabled; the default keeps the series append-only.
type Archiver struct {
	snapshots domain.SnapshotStore
	writer    ObjectWriter
	retention time.Duration
	prune     bool
	logger    *slog.Logger

	now func() time.Time
}

// NewArchiver wires an Archiver.
func NewArchiver(snapshots domain.SnapshotStore, writer ObjectWriter, retention time.Duration, prune bool, logger *slog.Logger) *Archiver {
	return &Archiver{
		snapshots: snapshots,
		writer:    writer,
		retention: retention,
		prune:     prune,
		logger:    logger.With(slog.String("component", "archiver")),
		now:       time.Now,
	}
}

// Run exports one batch. Uploads are grouped by UTC day so re-running after
// a partial failure overwrites the same keys instead of duplicating data.
func (a *Archiver) Run(ctx context.Context) error {
	cutoff := a.now().UTC().Add(-a.retention)

	snaps, err := a.snapshots.ListBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archive: list snapshots: %w", err)
	}
	if len(snaps) == 0 {
		a.logger.Debug("no snapshots past retention")
		return nil
	}

	for day, batch := range groupByDay(snaps) {
		key := fmt.Sprintf("snapshots/%s.jsonl", day)
		body, err := encodeJSONL(batch)
		if err != nil {
			return fmt.Errorf("archive: encode %s: %w", key, err)
		}
		if err := a.writer.Put(ctx, key, bytes.NewReader(body), contentTypeNDJSON); err != nil {
			return fmt.Errorf("archive: upload: %w", err)
		}
		a.logger.Info("archived snapshot batch",
			slog.String("key", key),
			slog.Int("rows", len(batch)),
		)
	}

	if !a.prune {
		return nil
	}
	deleted, err := a.snapshots.DeleteBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archive: prune: %w", err)
	}
	a.logger.Info("pruned archived snapshots", slog.Int64("rows", deleted))
	return nil
}

// RunLoop archives immediately and then once per interval until ctx is
// cancelled. A failed batch is logged and retried on the next tick.
func (a *Archiver) RunLoop(ctx context.Context, interval time.Duration) error {
	a.logger.Info("starting archive loop", slog.Duration("interval", interval))

	if err := a.Run(ctx); err != nil {
		a.logger.Error("archive run failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("archive loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := a.Run(ctx); err != nil {
				a.logger.Error("archive run failed", slog.String("error", err.Error()))
			}
		}
	}
}

func groupByDay(snaps []domain.Snapshot) map[string][]domain.Snapshot {
	grouped := make(map[string][]domain.Snapshot)
	for _, s := range snaps {
		day := s.Timestamp.UTC().Format("2006-01-02")
		grouped[day] = append(grouped[day], s)
	}
	for _, batch := range grouped {
		sort.Slice(batch, func(i, j int) bool {
			if !batch[i].Timestamp.Equal(batch[j].Timestamp) {
				return batch[i].Timestamp.Before(batch[j].Timestamp)
			}
			return batch[i].MarketID < batch[j].MarketID
		})
	}
	return grouped
}

func encodeJSONL(snaps []domain.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, s := range snaps {
		if err := enc.Encode(s); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
