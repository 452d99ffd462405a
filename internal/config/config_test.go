package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"DATABASE_URL", "HTTP_ADDR", "JWT_SECRET", "TOKEN_TTL_HOURS", "TELEGRAM_TOKEN",
	"DIGEST_TIME", "REPORT_INTERVAL_HOURS", "STORE_TIMEOUT_MS", "DEFAULT_PAGE_SIZE",
	"MAX_PAGE_SIZE", "LIST_DELETE_POLICY", "SHUTDOWN_TIMEOUT_SECONDS",
}

// isolate clears every variable Load reads and runs from an empty directory
// so no .env file leaks in.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "task_tracker.db", cfg.DatabaseURL)
	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "09:00", cfg.DigestTime)
	assert.Zero(t, cfg.ReportInterval)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 20, cfg.DefaultPageSize)
	assert.Equal(t, 100, cfg.MaxPageSize)
	assert.Equal(t, "cascade", cfg.ListDeletePolicy)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.BotEnabled())
}

func TestLoadOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "data/tasks.db")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TOKEN_TTL_HOURS", "2")
	t.Setenv("REPORT_INTERVAL_HOURS", "6")
	t.Setenv("STORE_TIMEOUT_MS", "250")
	t.Setenv("DEFAULT_PAGE_SIZE", "10")
	t.Setenv("MAX_PAGE_SIZE", "50")
	t.Setenv("LIST_DELETE_POLICY", "Reject")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "data/tasks.db", cfg.DatabaseURL)
	assert.True(t, cfg.BotEnabled())
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 6*time.Hour, cfg.ReportInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.StoreTimeout)
	assert.Equal(t, 10, cfg.DefaultPageSize)
	assert.Equal(t, 50, cfg.MaxPageSize)
	assert.Equal(t, "reject", cfg.ListDeletePolicy)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	isolate(t)
	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("LIST_DELETE_POLICY", "orphan")
	_, err = Load()
	assert.ErrorContains(t, err, "LIST_DELETE_POLICY")

	t.Setenv("LIST_DELETE_POLICY", "")
	t.Setenv("DEFAULT_PAGE_SIZE", "200")
	_, err = Load()
	assert.ErrorContains(t, err, "DEFAULT_PAGE_SIZE")
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("MAX_PAGE_SIZE", "lots")
	t.Setenv("STORE_TIMEOUT_MS", "-5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.MaxPageSize)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
}

func TestLoadReadsDotEnv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(".env", []byte("JWT_SECRET=from-file\nHTTP_ADDR=:8080\n"), 0o600))
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("HTTP_ADDR")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}
