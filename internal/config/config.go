package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration
type Config struct {
	AuthType    string   `env:"AUTH_TYPE"`
	SessionName string   `env:"SESSION_NAME" envDefault:"_my_session_id"`
	Host        string   `env:"API_HOST" envDefault:"0.0.0.0"`
	Port        string   `env:"API_PORT" envDefault:"5000"`
	LogLevel    int      `env:"LOG_LEVEL" envDefault:"0"`
	Database    Database
	Email       Email

	// TrustProxy keys rate limits by X-Forwarded-For / X-Real-IP. Enable
	// only behind a reverse proxy that sets those headers itself.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`

	// Kept as text so that a malformed value disables expiry instead of
	// failing startup.
	SessionDurationRaw string `env:"SESSION_DURATION" envDefault:"0"`
}

// Database selects the SQL dialect and its connection parameters
type Database struct {
	Type string `env:"DB_TYPE" envDefault:"sqlite"`
	Path string `env:"DB_PATH" envDefault:"./a.db"`
	URL  string `env:"DATABASE_URL"`
}

// Email configures the optional Amazon SES notifier for reset tokens
type Email struct {
	Region     string `env:"SES_REGION" envDefault:"us-east-1"`
	FromEmail  string `env:"SES_FROM_EMAIL"`
	FromName   string `env:"SES_FROM_NAME" envDefault:"authgate"`
	AppBaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:5000"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// SessionDuration returns the configured session lifetime. Zero means
// sessions never expire; non-numeric and negative values collapse to zero.
func (c *Config) SessionDuration() time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(c.SessionDurationRaw))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}
