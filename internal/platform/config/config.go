// Copyright (c) 2026 ExamGate. All rights reserved.

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, middleware) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the ExamGate API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Store (Redis). Optional: when empty the rate limiter falls
	// back to its single-process in-memory counter store.
	RedisURL string `env:"REDIS_URL"`

	// Token verification secret (HS256) and access-token lifetime.
	JWTSecret    string        `env:"JWT_SECRET,required,notEmpty"`
	JWTAccessTTL time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`

	// SessionIdleTimeout is the maximum inactivity window before a session
	// is considered expired.
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"24h"`

	// Windowed rate-limit profiles.
	AuthRateMax      int           `env:"AUTH_RATE_MAX"      envDefault:"5"`
	AuthRateWindow   time.Duration `env:"AUTH_RATE_WINDOW"   envDefault:"15m"`
	APIRateMax       int           `env:"API_RATE_MAX"       envDefault:"150"`
	APIRateWindow    time.Duration `env:"API_RATE_WINDOW"    envDefault:"15m"`
	UploadRateMax    int           `env:"UPLOAD_RATE_MAX"    envDefault:"10"`
	UploadRateWindow time.Duration `env:"UPLOAD_RATE_WINDOW" envDefault:"1h"`

	// Speed limiting (incremental delay before proceeding, never a 429).
	SlowDownAfter int           `env:"SLOWDOWN_AFTER" envDefault:"50"`
	SlowDownStep  time.Duration `env:"SLOWDOWN_STEP"  envDefault:"100ms"`
	SlowDownMax   time.Duration `env:"SLOWDOWN_MAX"   envDefault:"2s"`

	// MaxBodyBytes is the request-body size ceiling enforced while streaming.
	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	// SuspiciousBlock upgrades suspicious-pattern detection from audit-only
	// to request rejection.
	SuspiciousBlock bool `env:"SUSPICIOUS_BLOCK" envDefault:"false"`

	// Cross-Origin Resource Sharing
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects nonsensical values that would otherwise surface as
// confusing runtime behavior (e.g. a zero window never resetting a bucket).
func (c *Config) validate() error {
	if c.AuthRateMax <= 0 || c.APIRateMax <= 0 || c.UploadRateMax <= 0 {
		return fmt.Errorf("config: rate-limit max counts must be positive")
	}
	if c.AuthRateWindow <= 0 || c.APIRateWindow <= 0 || c.UploadRateWindow <= 0 {
		return fmt.Errorf("config: rate-limit windows must be positive")
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("config: session idle timeout must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("config: max body bytes must be positive")
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedCORSOrigins returns the configured cross-origin allow list.
func (c *Config) AllowedCORSOrigins() []string {
	return c.CORSOrigins
}
