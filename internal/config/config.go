// Package config loads engine settings from the environment. The .env file,
// when present, is loaded by main before this runs.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all settings for the transfer engine.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Catalog store.
	CatalogMongoURI string `env:"CATALOG_MONGO_URI,required"`
	CatalogDatabase string `env:"CATALOG_MONGO_DATABASE" envDefault:"pipebird"`

	// Shared object storage: destination for PROVISIONED_S3 shares and the
	// staging area warehouse loads copy from.
	S3Endpoint        string        `env:"S3_ENDPOINT,required"`
	S3Region          string        `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKeyID     string        `env:"S3_ACCESS_KEY_ID,required"`
	S3SecretAccessKey string        `env:"S3_SECRET_ACCESS_KEY,required"`
	S3Bucket          string        `env:"S3_BUCKET,required"`
	S3UseSSL          bool          `env:"S3_USE_SSL" envDefault:"true"`
	S3SignedURLTTL    time.Duration `env:"S3_SIGNED_URL_TTL" envDefault:"1h"`
	S3StagingPrefix   string        `env:"S3_STAGING_PREFIX" envDefault:"staging"`

	// Webhook delivery.
	WebhookTimeout   time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"10s"`
	WebhookRateLimit float64       `env:"WEBHOOK_RATE_LIMIT" envDefault:"8"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
