package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "serve"
log_level = "debug"

[database]
host = "db.internal"
password = "secret"

[ingest]
interval = "5m"
page_size = 250
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "serve", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, 5*time.Minute, cfg.Ingest.Interval.Duration)
	assert.Equal(t, 250, cfg.Ingest.PageSize)

	// Untouched sections keep their defaults.
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Ingest.Retry.MaxAttempts)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[database]
host = "from-file"
`)

	t.Setenv("POLYNEWS_DATABASE_HOST", "from-env")
	t.Setenv("POLYNEWS_INGEST_INTERVAL", "90s")
	t.Setenv("POLYNEWS_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("POLYNEWS_ARCHIVE_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Database.Host)
	assert.Equal(t, 90*time.Second, cfg.Ingest.Interval.Duration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Archive.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestValidateDefaults(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "hybrid"
	cfg.Redis.Addr = ""
	cfg.Ingest.PageSize = 0
	cfg.Notify.TelegramToken = "token-without-chat-id"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown mode "hybrid"`)
	assert.Contains(t, err.Error(), "redis: addr must not be empty")
	assert.Contains(t, err.Error(), "ingest: page_size must be >= 1")
	assert.Contains(t, err.Error(), "telegram_token and telegram_chat_id must be set together")
}

func TestValidateDSNBypassesFieldChecks(t *testing.T) {
	cfg := Defaults()
	cfg.Database.DSN = "postgres://u:p@db:5432/polynews"
	cfg.Database.Host = ""
	cfg.Database.Database = ""

	assert.NoError(t, cfg.Validate())
}

func TestValidateArchiveRequiresS3(t *testing.T) {
	cfg := Defaults()
	cfg.Archive.Enabled = true
	cfg.S3.Bucket = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3: bucket must not be empty")
}
