package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/naochaLuwang/daciana-cart/pkg/config"
)

// Config holds all configuration for the cart session service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CART_HTTP_PORT" envDefault:"8003"`

	// Local cart persistence
	StorageDir string `env:"CART_STORAGE_DIR" envDefault:"./data/cart"`

	// Push debounce window in milliseconds
	SyncDebounceMS int `env:"CART_SYNC_DEBOUNCE_MS" envDefault:"1500"`

	// PostgreSQL (remote cart mirror and shipping methods)
	PostgresHost    string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort    int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser    string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPass    string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	PostgresDB      string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSLMode string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// Redis (shipping method cache)
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Shipping method cache TTL in minutes
	ShippingCacheTTLMin int `env:"SHIPPING_CACHE_TTL_MINUTES" envDefault:"10"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load cart session config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SyncDebounce returns the push debounce window as a duration.
func (c *Config) SyncDebounce() time.Duration {
	return time.Duration(c.SyncDebounceMS) * time.Millisecond
}

// ShippingCacheTTL returns the shipping method cache TTL as a duration.
func (c *Config) ShippingCacheTTL() time.Duration {
	return time.Duration(c.ShippingCacheTTLMin) * time.Minute
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.SyncDebounceMS < 0 {
		return fmt.Errorf("invalid sync debounce: %dms", c.SyncDebounceMS)
	}
	if c.StorageDir == "" {
		return fmt.Errorf("storage dir must not be empty")
	}
	return nil
}
