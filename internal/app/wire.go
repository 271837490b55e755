package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/polynews/backend/internal/blob/s3"
	"github.com/polynews/backend/internal/cache/redis"
	"github.com/polynews/backend/internal/config"
	"github.com/polynews/backend/internal/domain"
	"github.com/polynews/backend/internal/notify"
	"github.com/polynews/backend/internal/platform/polymarket"
	"github.com/polynews/backend/internal/store/postgres"
)

// Dependencies bundles every concrete dependency the modes need. Wire
// constructs it; the returned cleanup function tears it down.
type Dependencies struct {
	PG    *postgres.Client
	Redis *redis.Client

	MarketStore         domain.MarketStore
	SnapshotStore       domain.SnapshotStore
	IngestionErrorStore domain.IngestionErrorStore

	FeedCache   domain.FeedCache
	StatusCache domain.StatusCache
	LockManager domain.LockManager

	Gamma    *polymarket.GammaClient
	Notifier *notify.Notifier
	Archiver *s3blob.Archiver
}

// Wire constructs all concrete implementations from the configuration.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Database.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.PG = pgClient
	deps.MarketStore = postgres.NewMarketStore(pool)
	deps.SnapshotStore = postgres.NewSnapshotStore(pool)
	deps.IngestionErrorStore = postgres.NewIngestionErrorStore(pool)

	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.Redis = redisClient
	deps.FeedCache = redis.NewFeedCache(redisClient)
	deps.StatusCache = redis.NewStatusCache(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)

	deps.Gamma = polymarket.NewGammaClient(cfg.Polymarket.GammaHost)

	if cfg.Archive.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		retention := time.Duration(cfg.Archive.RetentionDays) * 24 * time.Hour
		deps.Archiver = s3blob.NewArchiver(
			deps.SnapshotStore,
			s3blob.NewWriter(s3Client),
			retention,
			cfg.Archive.Prune,
			logger,
		)
	}

	var channels []notify.Channel
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		channels = append(channels, notify.NewTelegramChannel(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		channels = append(channels, notify.NewDiscordChannel(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.New(channels, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
