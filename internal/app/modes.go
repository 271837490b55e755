package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/polynews/backend/internal/editorial"
	"github.com/polynews/backend/internal/ingest"
	"github.com/polynews/backend/internal/server"
	"github.com/polynews/backend/internal/server/handler"
	"github.com/polynews/backend/internal/service"
)

const shutdownTimeout = 10 * time.Second

// ServeMode runs only the HTTP API.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)
	return g.Wait()
}

// IngestMode runs only the reconciliation loop (plus the archiver when
// enabled).
func (a *App) IngestMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting ingest mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startIngestion(ctx, g, deps)
	return g.Wait()
}

// FullMode runs ingestion and the HTTP API in one process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startIngestion(ctx, g, deps)
	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}
	return g.Wait()
}

// startIngestion adds the reconciler scheduler (and archiver) goroutines.
func (a *App) startIngestion(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	reconciler := ingest.NewReconciler(
		deps.Gamma,
		deps.MarketStore,
		deps.SnapshotStore,
		deps.IngestionErrorStore,
		deps.FeedCache,
		deps.StatusCache,
		deps.Notifier,
		ingest.Config{
			PageSize:       a.cfg.Ingest.PageSize,
			MaxPages:       a.cfg.Ingest.MaxPages,
			ResolvedWindow: a.cfg.Ingest.ResolvedWindow.Duration,
			RecheckWindow:  a.cfg.Ingest.RecheckWindow.Duration,
			StaleLimit:     a.cfg.Ingest.StaleLimit,
		},
		a.logger,
	)

	scheduler := ingest.NewScheduler(
		reconciler,
		deps.LockManager,
		ingest.RetryPolicy{
			MaxAttempts: a.cfg.Ingest.Retry.MaxAttempts,
			BaseDelay:   a.cfg.Ingest.Retry.BaseDelay.Duration,
			Multiplier:  a.cfg.Ingest.Retry.Multiplier,
		},
		deps.Notifier,
		a.logger,
	)
	g.Go(func() error {
		return scheduler.RunLoop(ctx, a.cfg.Ingest.Interval.Duration)
	})

	if deps.Archiver != nil {
		g.Go(func() error {
			return deps.Archiver.RunLoop(ctx, a.cfg.Archive.Interval.Duration)
		})
	}
}

// startHTTPServer builds the service and handler stack, then runs the
// server until the context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	engine := editorial.NewEngine(editorial.NewsworthinessParams{
		WeightMovement:     a.cfg.Editorial.WeightMovement,
		WeightSignificance: a.cfg.Editorial.WeightSignificance,
		WeightVolatility:   a.cfg.Editorial.WeightVolatility,
		SigmoidSteepness:   a.cfg.Editorial.SigmoidSteepness,
		SigmoidMidpoint:    a.cfg.Editorial.SigmoidMidpoint,
		MaxVolumeLog:       a.cfg.Editorial.MaxVolumeLog,
		MinChangeThreshold: a.cfg.Editorial.MinChangeThreshold,
	}, a.cfg.Editorial.TickerSize, a.cfg.Editorial.MoversSize)

	feedSvc := service.NewFeedService(
		deps.MarketStore,
		deps.SnapshotStore,
		deps.FeedCache,
		engine,
		a.cfg.Editorial.FeedLimit,
		a.cfg.Cache.FeedTTL.Duration,
		a.cfg.Cache.EditorialTTL.Duration,
		a.logger,
	)
	marketSvc := service.NewMarketService(
		deps.MarketStore,
		deps.SnapshotStore,
		deps.FeedCache,
		a.cfg.Cache.MarketTTL.Duration,
		a.cfg.Cache.CategoryTTL.Duration,
		a.logger,
	)
	statusSvc := service.NewStatusService(deps.PG, deps.Redis, deps.StatusCache, a.logger)

	srv := server.New(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
		},
		server.Handlers{
			Feed:    handler.NewFeedHandler(feedSvc, a.logger),
			Markets: handler.NewMarketHandler(marketSvc, a.logger),
			Health:  handler.NewHealthHandler(statusSvc, a.logger),
		},
		a.logger,
	)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		}
		return ctx.Err()
	})
}
