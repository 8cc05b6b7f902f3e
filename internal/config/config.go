// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache / rate limit backend (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	// FailOpen controls what happens when the Redis backend is unreachable
	// or times out: true admits the request, false rejects it. An explicit
	// over-limit count always rejects regardless of this setting.
	RateLimitFailOpen bool          `env:"RATE_LIMIT_FAIL_OPEN" envDefault:"true"`
	RateLimitTimeout  time.Duration `env:"RATE_LIMIT_TIMEOUT" envDefault:"500ms"`

	// Email verification
	DNSTimeout           time.Duration `env:"DNS_TIMEOUT" envDefault:"3s"`
	MXCacheTTL           time.Duration `env:"MX_CACHE_TTL" envDefault:"5m"`
	DisposableDomainFile string        `env:"DISPOSABLE_DOMAINS_FILE" envDefault:""`
	// Comma-separated local parts treated as role addresses.
	RoleAddresses string `env:"ROLE_ADDRESSES" envDefault:"admin,info,support,contact,sales"`

	// Admin surface capability token. Empty disables the admin routes.
	AdminToken string `env:"ADMIN_TOKEN" envDefault:""`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetRoleAddresses parses the comma-separated role list into a slice.
func (c *Config) GetRoleAddresses() []string {
	parts := strings.Split(c.RoleAddresses, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// A .env file in the working directory is applied first if present.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
