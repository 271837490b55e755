package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies POLYNEWS_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known POLYNEWS_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "POLYNEWS_POLYMARKET_GAMMA_HOST")

	// ── Database ──
	setStr(&cfg.Database.DSN, "POLYNEWS_DATABASE_DSN")
	setStr(&cfg.Database.Host, "POLYNEWS_DATABASE_HOST")
	setInt(&cfg.Database.Port, "POLYNEWS_DATABASE_PORT")
	setStr(&cfg.Database.Database, "POLYNEWS_DATABASE_NAME")
	setStr(&cfg.Database.User, "POLYNEWS_DATABASE_USER")
	setStr(&cfg.Database.Password, "POLYNEWS_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "POLYNEWS_DATABASE_SSLMODE")
	setInt(&cfg.Database.PoolMaxConns, "POLYNEWS_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "POLYNEWS_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "POLYNEWS_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "POLYNEWS_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "POLYNEWS_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "POLYNEWS_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "POLYNEWS_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "POLYNEWS_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "POLYNEWS_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "POLYNEWS_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "POLYNEWS_S3_REGION")
	setStr(&cfg.S3.Bucket, "POLYNEWS_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "POLYNEWS_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "POLYNEWS_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "POLYNEWS_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "POLYNEWS_S3_FORCE_PATH_STYLE")

	// ── Ingest ──
	setDuration(&cfg.Ingest.Interval, "POLYNEWS_INGEST_INTERVAL")
	setInt(&cfg.Ingest.PageSize, "POLYNEWS_INGEST_PAGE_SIZE")
	setInt(&cfg.Ingest.MaxPages, "POLYNEWS_INGEST_MAX_PAGES")
	setDuration(&cfg.Ingest.ResolvedWindow, "POLYNEWS_INGEST_RESOLVED_WINDOW")
	setDuration(&cfg.Ingest.RecheckWindow, "POLYNEWS_INGEST_RECHECK_WINDOW")
	setInt(&cfg.Ingest.StaleLimit, "POLYNEWS_INGEST_STALE_LIMIT")
	setInt(&cfg.Ingest.Retry.MaxAttempts, "POLYNEWS_INGEST_RETRY_MAX_ATTEMPTS")
	setDuration(&cfg.Ingest.Retry.BaseDelay, "POLYNEWS_INGEST_RETRY_BASE_DELAY")
	setFloat64(&cfg.Ingest.Retry.Multiplier, "POLYNEWS_INGEST_RETRY_MULTIPLIER")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "POLYNEWS_ARCHIVE_ENABLED")
	setDuration(&cfg.Archive.Interval, "POLYNEWS_ARCHIVE_INTERVAL")
	setInt(&cfg.Archive.RetentionDays, "POLYNEWS_ARCHIVE_RETENTION_DAYS")
	setBool(&cfg.Archive.Prune, "POLYNEWS_ARCHIVE_PRUNE")

	// ── Editorial ──
	setFloat64(&cfg.Editorial.WeightMovement, "POLYNEWS_EDITORIAL_WEIGHT_MOVEMENT")
	setFloat64(&cfg.Editorial.WeightSignificance, "POLYNEWS_EDITORIAL_WEIGHT_SIGNIFICANCE")
	setFloat64(&cfg.Editorial.WeightVolatility, "POLYNEWS_EDITORIAL_WEIGHT_VOLATILITY")
	setFloat64(&cfg.Editorial.SigmoidSteepness, "POLYNEWS_EDITORIAL_SIGMOID_STEEPNESS")
	setFloat64(&cfg.Editorial.SigmoidMidpoint, "POLYNEWS_EDITORIAL_SIGMOID_MIDPOINT")
	setFloat64(&cfg.Editorial.MaxVolumeLog, "POLYNEWS_EDITORIAL_MAX_VOLUME_LOG")
	setFloat64(&cfg.Editorial.MinChangeThreshold, "POLYNEWS_EDITORIAL_MIN_CHANGE_THRESHOLD")
	setInt(&cfg.Editorial.TickerSize, "POLYNEWS_EDITORIAL_TICKER_SIZE")
	setInt(&cfg.Editorial.MoversSize, "POLYNEWS_EDITORIAL_MOVERS_SIZE")
	setInt(&cfg.Editorial.FeedLimit, "POLYNEWS_EDITORIAL_FEED_LIMIT")

	// ── Cache ──
	setDuration(&cfg.Cache.FeedTTL, "POLYNEWS_CACHE_FEED_TTL")
	setDuration(&cfg.Cache.EditorialTTL, "POLYNEWS_CACHE_EDITORIAL_TTL")
	setDuration(&cfg.Cache.MarketTTL, "POLYNEWS_CACHE_MARKET_TTL")
	setDuration(&cfg.Cache.CategoryTTL, "POLYNEWS_CACHE_CATEGORY_TTL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "POLYNEWS_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "POLYNEWS_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "POLYNEWS_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "POLYNEWS_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "POLYNEWS_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "POLYNEWS_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "POLYNEWS_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "POLYNEWS_MODE")
	setStr(&cfg.LogLevel, "POLYNEWS_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
