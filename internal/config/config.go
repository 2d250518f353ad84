package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all environment-driven server configuration
type Config struct {
	Port        string `envconfig:"PORT" default:"8787"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	DatabaseURL string `envconfig:"DATABASE_URL"`
	JWTSecret   string `envconfig:"JWT_SECRET"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE" default:"server.log"`

	RedisHost     string `envconfig:"REDIS_HOST"`
	RedisPort     string `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	AWSRegion  string `envconfig:"AWS_REGION"`
	S3Bucket   string `envconfig:"AWS_BUCKET"`
	CDNBaseURL string `envconfig:"CDN_BASE_URL"`

	// Rate limiter tuning. Disabled is the fail-open switch used by
	// automated tests and local tooling.
	RateLimitDisabled bool          `envconfig:"RATE_LIMIT_DISABLED"`
	RateLimitMaxKeys  int           `envconfig:"RATE_LIMIT_MAX_KEYS" default:"10000"`
	RateLimitIdleTTL  time.Duration `envconfig:"RATE_LIMIT_IDLE_TTL" default:"10m"`
}

// Load reads configuration from .env (if present) and the process environment.
func Load() (*Config, error) {
	// .env is optional - production uses real environment variables
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if cfg.RateLimitMaxKeys <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX_KEYS must be positive, got %d", cfg.RateLimitMaxKeys)
	}

	return &cfg, nil
}

// IsTest reports whether the server is running under automated tests.
// Rate limiting fails open in this mode.
func (c *Config) IsTest() bool {
	return c.Environment == "test"
}
