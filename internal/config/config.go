// Package config defines the top-level configuration for the polynews
// backend and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by POLYNEWS_* environment
// variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Database   DatabaseConfig   `toml:"database"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Ingest     IngestConfig     `toml:"ingest"`
	Archive    ArchiveConfig    `toml:"archive"`
	Editorial  EditorialConfig  `toml:"editorial"`
	Cache      CacheConfig      `toml:"cache"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds the upstream Gamma API endpoint.
type PolymarketConfig struct {
	GammaHost string `toml:"gamma_host"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for the snapshot
// archiver.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// IngestConfig holds the reconciler's cadence and paging parameters.
type IngestConfig struct {
	Interval       duration    `toml:"interval"`
	PageSize       int         `toml:"page_size"`
	MaxPages       int         `toml:"max_pages"`
	ResolvedWindow duration    `toml:"resolved_window"`
	RecheckWindow  duration    `toml:"recheck_window"`
	StaleLimit     int         `toml:"stale_limit"`
	Retry          RetryConfig `toml:"retry"`
}

// RetryConfig holds the cycle-level retry policy owned by the scheduler.
type RetryConfig struct {
	MaxAttempts int      `toml:"max_attempts"`
	BaseDelay   duration `toml:"base_delay"`
	Multiplier  float64  `toml:"multiplier"`
}

// ArchiveConfig holds snapshot cold-storage archival parameters. Prune
// controls whether exported rows are deleted from the primary store; it is
// off by default so the snapshot series stays append-only.
type ArchiveConfig struct {
	Enabled       bool     `toml:"enabled"`
	Interval      duration `toml:"interval"`
	RetentionDays int      `toml:"retention_days"`
	Prune         bool     `toml:"prune"`
}

// EditorialConfig holds the curation engine's tunables.
type EditorialConfig struct {
	WeightMovement     float64 `toml:"weight_movement"`
	WeightSignificance float64 `toml:"weight_significance"`
	WeightVolatility   float64 `toml:"weight_volatility"`
	SigmoidSteepness   float64 `toml:"sigmoid_steepness"`
	SigmoidMidpoint    float64 `toml:"sigmoid_midpoint"`
	MaxVolumeLog       float64 `toml:"max_volume_log"`
	MinChangeThreshold float64 `toml:"min_change_threshold"`
	TickerSize         int     `toml:"ticker_size"`
	MoversSize         int     `toml:"movers_size"`
	FeedLimit          int     `toml:"feed_limit"`
}

// CacheConfig holds response cache TTLs.
type CacheConfig struct {
	FeedTTL      duration `toml:"feed_ttl"`
	EditorialTTL duration `toml:"editorial_ttl"`
	MarketTTL    duration `toml:"market_ttl"`
	CategoryTTL  duration `toml:"category_ttl"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "2m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost: "https://gamma-api.polymarket.com",
		},
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "polynews",
			User:          "polynews",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "polynews-archive",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Ingest: IngestConfig{
			Interval:       duration{2 * time.Minute},
			PageSize:       100,
			MaxPages:       5,
			ResolvedWindow: duration{24 * time.Hour},
			RecheckWindow:  duration{time.Hour},
			StaleLimit:     50,
			Retry: RetryConfig{
				MaxAttempts: 3,
				BaseDelay:   duration{time.Minute},
				Multiplier:  3,
			},
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			Interval:      duration{24 * time.Hour},
			RetentionDays: 90,
			Prune:         false,
		},
		Editorial: EditorialConfig{
			WeightMovement:     0.4,
			WeightSignificance: 0.5,
			WeightVolatility:   0.1,
			SigmoidSteepness:   0.15,
			SigmoidMidpoint:    8,
			MaxVolumeLog:       8,
			MinChangeThreshold: 2.0,
			TickerSize:         8,
			MoversSize:         8,
			FeedLimit:          500,
		},
		Cache: CacheConfig{
			FeedTTL:      duration{5 * time.Minute},
			EditorialTTL: duration{time.Minute},
			MarketTTL:    duration{5 * time.Minute},
			CategoryTTL:  duration{time.Hour},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Notify: NotifyConfig{
			Events: []string{"cycle_failed", "data_quality"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"serve":  true,
	"ingest": true,
	"full":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, ingest, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		if c.Database.Host == "" {
			errs = append(errs, "database: host must not be empty (or set database.dsn)")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.Database == "" {
			errs = append(errs, "database: database must not be empty")
		}
	}
	if c.Database.PoolMaxConns < 1 {
		errs = append(errs, "database: pool_max_conns must be >= 1")
	}
	if c.Database.PoolMinConns < 0 {
		errs = append(errs, "database: pool_min_conns must be >= 0")
	}
	if c.Database.PoolMinConns > c.Database.PoolMaxConns {
		errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
	}

	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	if c.Archive.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archive is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archive is enabled")
		}
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1")
		}
	}

	if c.Ingest.PageSize < 1 {
		errs = append(errs, "ingest: page_size must be >= 1")
	}
	if c.Ingest.MaxPages < 1 {
		errs = append(errs, "ingest: max_pages must be >= 1")
	}
	if c.Ingest.Interval.Duration <= 0 {
		errs = append(errs, "ingest: interval must be positive")
	}
	if c.Ingest.Retry.MaxAttempts < 1 {
		errs = append(errs, "ingest: retry.max_attempts must be >= 1")
	}
	if c.Ingest.Retry.Multiplier < 1 {
		errs = append(errs, "ingest: retry.multiplier must be >= 1")
	}

	if c.Editorial.MaxVolumeLog <= 0 {
		errs = append(errs, "editorial: max_volume_log must be > 0")
	}
	if c.Editorial.TickerSize < 1 {
		errs = append(errs, "editorial: ticker_size must be >= 1")
	}
	if c.Editorial.MoversSize < 1 {
		errs = append(errs, "editorial: movers_size must be >= 1")
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	tg := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tg != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
