// Package config loads runtime settings from the environment (optionally
// seeded from a .env file).
package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every setting consumed by the server and the CLI entry points.
type Config struct {
	DatabaseURL      string `env:"DATABASE_URL"`
	ListenAddr       string `env:"LISTEN_ADDR" envDefault:":5200"`
	GameServiceToken string `env:"GAME_SERVICE_TOKEN"`
	Environment      string `env:"APP_ENV" envDefault:"development"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`

	Ranking   RankingConfig
	Lifecycle LifecycleConfig
	Purge     PurgeConfig

	RateLimitBackend string `env:"RATE_LIMIT_BACKEND" envDefault:"memory"` // memory | redis
	RedisURL         string `env:"REDIS_URL"`

	KafkaBrokers       []string `env:"KAFKA_BROKERS" envSeparator:","`
	TierPromotionTopic string   `env:"TIER_PROMOTION_TOPIC" envDefault:"ranking.tier-promoted"`

	R2 R2Config
}

// RankingConfig drives RankingService.
type RankingConfig struct {
	Enabled            bool          `env:"RANKING_ENABLED" envDefault:"true"`
	KFactor            float64       `env:"RANKING_K_FACTOR" envDefault:"32"`
	SeedRating         int           `env:"RANKING_SEED_RATING" envDefault:"1000"`
	MinSessionDuration time.Duration `env:"RANKING_MIN_SESSION_DURATION" envDefault:"10m"`
	SubmissionCooldown time.Duration `env:"RANKING_SUBMISSION_COOLDOWN" envDefault:"30s"`
}

// LifecycleConfig drives SessionLifecycleService and its scheduler.
type LifecycleConfig struct {
	AutoCompleteAfterHours  int           `env:"LIFECYCLE_AUTO_COMPLETE_AFTER_HOURS" envDefault:"6"`
	CompletedRetentionHours int           `env:"LIFECYCLE_COMPLETED_RETENTION_HOURS" envDefault:"72"`
	BatchSize               int           `env:"LIFECYCLE_BATCH_SIZE" envDefault:"500"`
	SweepInterval           time.Duration `env:"LIFECYCLE_SWEEP_INTERVAL" envDefault:"5m"`
}

// PurgeConfig drives the account purge routine.
type PurgeConfig struct {
	GraceHours int `env:"ACCOUNT_PURGE_GRACE_HOURS" envDefault:"24"`
	BatchSize  int `env:"ACCOUNT_PURGE_BATCH_SIZE" envDefault:"200"`
}

// R2Config points at the S3-compatible bucket used for archive manifests.
// An empty Bucket disables the upload.
type R2Config struct {
	AccountID       string `env:"CLOUDFLARE_ACCOUNT_ID"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
	Bucket          string `env:"R2_BUCKET_NAME"`
}

// Load reads .env (if present) and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	return Parse()
}

// Parse builds a Config from the current process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	if c.Lifecycle.AutoCompleteAfterHours < 0 || c.Lifecycle.CompletedRetentionHours < 0 {
		return errors.New("lifecycle hour thresholds must not be negative")
	}
	if c.Lifecycle.BatchSize <= 0 {
		return errors.New("LIFECYCLE_BATCH_SIZE must be positive")
	}
	if c.Ranking.KFactor <= 0 {
		return errors.New("RANKING_K_FACTOR must be positive")
	}
	if c.Ranking.SeedRating < 0 {
		return errors.New("RANKING_SEED_RATING must not be negative")
	}
	switch c.RateLimitBackend {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when RATE_LIMIT_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown RATE_LIMIT_BACKEND %q", c.RateLimitBackend)
	}
	return nil
}

// RequireDatabase fails fast when no DSN is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL environment variable not set")
	}
	return nil
}
