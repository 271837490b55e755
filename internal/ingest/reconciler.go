// Package ingest implements the upstream reconciliation cycle: fetch market
// listings, repair stale rows, and persist idempotent snapshots.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/polynews/backend/internal/domain"
)

// MarketSource retrieves normalized markets from the upstream API.
type MarketSource interface {
	ActiveMarkets(ctx context.Context, limit, offset int) ([]domain.IngestedMarket, error)
	ResolvedMarkets(ctx context.Context, limit, offset int) ([]domain.IngestedMarket, error)
	MarketByID(ctx context.Context, id string) (domain.IngestedMarket, error)
}

// Notifier delivers operator alerts for ingestion events.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Config holds the tunables of one reconciliation cycle.
type Config struct {
	PageSize       int
	MaxPages       int
	ResolvedWindow time.Duration
	RecheckWindow  time.Duration
	StaleLimit     int
}

// Reconciler runs one full ingestion cycle: an active-market pass, a
// recently-resolved pass, a staleness-repair pass over markets the listing
// endpoints stopped returning, and an idempotent write phase.
type Reconciler struct {
	source    MarketSource
	markets   domain.MarketStore
	snapshots domain.SnapshotStore
	ingErrors domain.IngestionErrorStore
	feedCache domain.FeedCache
	status    domain.StatusCache
	notifier  Notifier
	cfg       Config
	logger    *slog.Logger

	now func() time.Time
}

// NewReconciler wires a Reconciler. notifier may be nil.
func NewReconciler(
	source MarketSource,
	markets domain.MarketStore,
	snapshots domain.SnapshotStore,
	ingErrors domain.IngestionErrorStore,
	feedCache domain.FeedCache,
	status domain.StatusCache,
	notifier Notifier,
	cfg Config,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		source:    source,
		markets:   markets,
		snapshots: snapshots,
		ingErrors: ingErrors,
		feedCache: feedCache,
		status:    status,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "reconciler")),
		now:       time.Now,
	}
}

// Run executes a single reconciliation cycle. A failure in the fetch phase
// aborts the cycle, bumps the hourly error counter, and is returned to the
// scheduler for backoff retry. Per-market write failures are recorded and
// counted but never abort the cycle.
func (r *Reconciler) Run(ctx context.Context) error {
	start := r.now().UTC()

	merged, order, err := r.fetch(ctx, start)
	if err != nil {
		if cacheErr := r.status.IncrErrorCount(ctx, 1); cacheErr != nil {
			r.logger.Warn("increment error counter failed", slog.String("error", cacheErr.Error()))
		}
		return fmt.Errorf("ingest: fetch phase: %w", err)
	}

	if len(order) == 0 {
		r.logger.Warn("no markets fetched, skipping cycle")
		return nil
	}

	cycleTS := start.Truncate(time.Second)
	writeErrors := r.write(ctx, merged, order, cycleTS)

	// Post-commit housekeeping is best effort. Serving a slightly stale
	// feed beats failing a cycle that already committed.
	if err := r.snapshots.RefreshTrending(ctx); err != nil {
		r.logger.Error("refresh trending view failed", slog.String("error", err.Error()))
	}
	if err := r.status.SetLastIngestion(ctx, cycleTS); err != nil {
		r.logger.Error("set last ingestion failed", slog.String("error", err.Error()))
	}
	r.invalidateCaches(ctx)

	if writeErrors > 0 {
		if err := r.status.IncrErrorCount(ctx, writeErrors); err != nil {
			r.logger.Warn("increment error counter failed", slog.String("error", err.Error()))
		}
	}

	r.dataQualityCheck(ctx)

	r.logger.Info("ingestion cycle complete",
		slog.Int("markets", len(order)),
		slog.Int64("errors", writeErrors),
		slog.Duration("elapsed", r.now().UTC().Sub(start)),
	)
	return nil
}

// fetch runs the active, resolved, and staleness-repair passes and merges
// them by market id. The resolved pass wins over the active pass, and
// re-fetched stale markets win over both. The returned order preserves
// first-seen sequence so write batches are deterministic.
func (r *Reconciler) fetch(ctx context.Context, now time.Time) (map[string]domain.IngestedMarket, []string, error) {
	merged := make(map[string]domain.IngestedMarket)
	var order []string

	add := func(m domain.IngestedMarket) {
		if _, seen := merged[m.ID]; !seen {
			order = append(order, m.ID)
		}
		merged[m.ID] = m
	}

	// Active pass: volume-ordered pages, stop early on a short page.
	for page := 0; page < r.cfg.MaxPages; page++ {
		markets, err := r.source.ActiveMarkets(ctx, r.cfg.PageSize, page*r.cfg.PageSize)
		if err != nil {
			return nil, nil, fmt.Errorf("active page %d: %w", page, err)
		}
		r.countRequest(ctx)
		if len(markets) == 0 {
			break
		}
		for _, m := range markets {
			add(m)
		}
		if len(markets) < r.cfg.PageSize {
			break
		}
	}

	// Resolved pass: newest resolutions first, stop once a page reaches
	// past the recency window.
	cutoff := now.Add(-r.cfg.ResolvedWindow)
	for page := 0; page < r.cfg.MaxPages; page++ {
		markets, err := r.source.ResolvedMarkets(ctx, r.cfg.PageSize, page*r.cfg.PageSize)
		if err != nil {
			return nil, nil, fmt.Errorf("resolved page %d: %w", page, err)
		}
		r.countRequest(ctx)
		if len(markets) == 0 {
			break
		}

		pastWindow := false
		for _, m := range markets {
			if m.ClosedTime != nil && m.ClosedTime.Before(cutoff) {
				pastWindow = true
				continue
			}
			add(m)
		}
		if pastWindow || len(markets) < r.cfg.PageSize {
			break
		}
	}

	// Staleness repair: markets still marked active past their deadline
	// that the listing passes stopped returning. Each one is re-fetched
	// individually; failures here are per-market, not cycle-level.
	stale, err := r.markets.ListStaleActive(ctx, now.Add(-r.cfg.RecheckWindow), r.cfg.StaleLimit)
	if err != nil {
		r.logger.Warn("stale market query failed", slog.String("error", err.Error()))
		return merged, order, nil
	}
	for _, sm := range stale {
		if _, fetched := merged[sm.ID]; fetched {
			continue
		}
		m, err := r.source.MarketByID(ctx, sm.ID)
		r.countRequest(ctx)
		if err != nil {
			r.logger.Warn("stale market re-fetch failed",
				slog.String("market_id", sm.ID),
				slog.String("error", err.Error()),
			)
			r.recordError(ctx, sm.ID, err)
			continue
		}
		add(m)
	}

	return merged, order, nil
}

// write upserts each market and appends its snapshot at the shared cycle
// timestamp. Returns the number of markets that failed.
func (r *Reconciler) write(ctx context.Context, merged map[string]domain.IngestedMarket, order []string, cycleTS time.Time) int64 {
	var writeErrors int64

	for _, id := range order {
		m := merged[id]

		if len(m.Anomalies) > 0 {
			r.logger.Warn("upstream field anomalies",
				slog.String("market_id", m.ID),
				slog.String("fields", strings.Join(m.Anomalies, ",")),
			)
		}

		market := m.Market
		market.LastUpdated = cycleTS

		if err := r.markets.Upsert(ctx, market); err != nil {
			writeErrors++
			r.logger.Error("market upsert failed",
				slog.String("market_id", m.ID),
				slog.String("error", err.Error()),
			)
			r.recordError(ctx, m.ID, err)
			continue
		}

		snap := domain.Snapshot{
			MarketID:     m.ID,
			Timestamp:    cycleTS,
			YesPrice:     m.YesPrice,
			NoPrice:      m.NoPrice,
			Volume:       m.Volume,
			OpenInterest: m.OpenInterest,
		}
		if err := r.snapshots.Insert(ctx, snap); err != nil {
			writeErrors++
			r.logger.Error("snapshot insert failed",
				slog.String("market_id", m.ID),
				slog.String("error", err.Error()),
			)
			r.recordError(ctx, m.ID, err)
		}
	}

	return writeErrors
}

// invalidateCaches drops every read-path cache so the next request sees the
// new data.
func (r *Reconciler) invalidateCaches(ctx context.Context) {
	for _, prefix := range []string{
		"polynews:feed:",
		"polynews:editorial_feed:",
		"polynews:market:",
	} {
		if err := r.feedCache.InvalidatePrefix(ctx, prefix); err != nil {
			r.logger.Error("cache invalidation failed",
				slog.String("prefix", prefix),
				slog.String("error", err.Error()),
			)
		}
	}
	if err := r.feedCache.Delete(ctx, "polynews:categories"); err != nil {
		r.logger.Error("cache invalidation failed",
			slog.String("key", "polynews:categories"),
			slog.String("error", err.Error()),
		)
	}
}

// dataQualityCheck logs and notifies when active markets are past their
// resolution deadline. It is a warning, never an error: the next cycle's
// staleness pass repairs these rows.
func (r *Reconciler) dataQualityCheck(ctx context.Context) {
	count, err := r.markets.CountActivePastDeadline(ctx)
	if err != nil {
		r.logger.Warn("data quality check failed", slog.String("error", err.Error()))
		return
	}
	if count == 0 {
		return
	}

	r.logger.Warn("active markets past resolution deadline", slog.Int64("count", count))
	if r.notifier != nil {
		msg := fmt.Sprintf("%d active markets are past their resolution deadline", count)
		if err := r.notifier.Notify(ctx, "data_quality", "Data quality warning", msg); err != nil {
			r.logger.Warn("data quality notification failed", slog.String("error", err.Error()))
		}
	}
}

func (r *Reconciler) countRequest(ctx context.Context) {
	if err := r.status.IncrRequestCount(ctx); err != nil {
		r.logger.Warn("increment request counter failed", slog.String("error", err.Error()))
	}
}

func (r *Reconciler) recordError(ctx context.Context, marketID string, cause error) {
	e := domain.IngestionError{
		MarketID:  marketID,
		Timestamp: r.now().UTC(),
		Message:   cause.Error(),
	}
	if err := r.ingErrors.Insert(ctx, e); err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Warn("record ingestion error failed",
			slog.String("market_id", marketID),
			slog.String("error", err.Error()),
		)
	}
}
