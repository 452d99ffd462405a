package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the tracker.
type Config struct {
	DatabaseURL      string
	HTTPAddr         string
	JWTSecret        string
	TokenTTL         time.Duration
	TelegramToken    string
	DigestTime       string
	ReportInterval   time.Duration
	StoreTimeout     time.Duration
	DefaultPageSize  int
	MaxPageSize      int
	ListDeletePolicy string
	ShutdownTimeout  time.Duration
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is applied first when present;
// variables already set in the environment win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DatabaseURL:      env("DATABASE_URL"),
		HTTPAddr:         env("HTTP_ADDR"),
		JWTSecret:        env("JWT_SECRET"),
		TokenTTL:         parseHours(env("TOKEN_TTL_HOURS")),
		TelegramToken:    env("TELEGRAM_TOKEN"),
		DigestTime:       env("DIGEST_TIME"),
		ReportInterval:   parseHours(env("REPORT_INTERVAL_HOURS")),
		StoreTimeout:     parseMillis(env("STORE_TIMEOUT_MS")),
		DefaultPageSize:  parsePositive(env("DEFAULT_PAGE_SIZE")),
		MaxPageSize:      parsePositive(env("MAX_PAGE_SIZE")),
		ListDeletePolicy: strings.ToLower(env("LIST_DELETE_POLICY")),
		ShutdownTimeout:  parseSeconds(env("SHUTDOWN_TIMEOUT_SECONDS")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "task_tracker.db"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":3000"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.DigestTime == "" {
		cfg.DigestTime = "09:00"
	}
	if cfg.StoreTimeout == 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	if cfg.MaxPageSize == 0 {
		cfg.MaxPageSize = 100
	}
	if cfg.DefaultPageSize == 0 {
		cfg.DefaultPageSize = 20
	}
	if cfg.ListDeletePolicy == "" {
		cfg.ListDeletePolicy = "cascade"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	if cfg.DefaultPageSize > cfg.MaxPageSize {
		return cfg, fmt.Errorf("DEFAULT_PAGE_SIZE %d exceeds MAX_PAGE_SIZE %d", cfg.DefaultPageSize, cfg.MaxPageSize)
	}
	if cfg.ListDeletePolicy != "cascade" && cfg.ListDeletePolicy != "reject" {
		return cfg, fmt.Errorf("LIST_DELETE_POLICY must be cascade or reject, got %q", cfg.ListDeletePolicy)
	}
	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// BotEnabled reports whether a Telegram token was configured.
func (c Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseHours(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func parseSeconds(raw string) time.Duration {
	n := parsePositive(raw)
	return time.Duration(n) * time.Second
}

func parseMillis(raw string) time.Duration {
	n := parsePositive(raw)
	return time.Duration(n) * time.Millisecond
}

func parsePositive(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
