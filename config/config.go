// Package config provides harness configuration loaded from environment
// variables, with a few values overridable from the command line.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all settings for a harness run. All fields are populated from
// environment variables; the -url flag, when given, overrides BaseURL.
type Config struct {
	// Base URL of the deployed service under test
	BaseURL string `env:"BANK_URL" envDefault:"https://mybank-8s6n.onrender.com"`

	// URL that browser-level scenarios open; usually the same host
	UIBaseURL string `env:"BANK_UI_URL"`

	// Fixed identity used by read-only smoke scenarios. Mutating scenarios
	// always generate their own identity and never touch this one.
	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@mybank.com"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"123456"`

	// Domain suffix for generated scenario identities
	IdentityDomain string `env:"IDENTITY_DOMAIN" envDefault:"test.com"`

	// Convergence polling budget for post-mutation verification reads
	VerifyAttempts int           `env:"VERIFY_ATTEMPTS" envDefault:"5"`
	VerifyBackoff  time.Duration `env:"VERIFY_BACKOFF" envDefault:"500ms"`

	// Accepted amount bounds, as decimal strings
	MinAmount string `env:"MIN_AMOUNT" envDefault:"1"`
	MaxAmount string `env:"MAX_AMOUNT" envDefault:"1000000"`

	// How long to wait for the service to wake up before the run starts
	StatusTimeout time.Duration `env:"STATUS_TIMEOUT" envDefault:"60s"`

	// Per-request timeout for API calls
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("reading configuration from environment: %w", err)
	}
	if cfg.UIBaseURL == "" {
		cfg.UIBaseURL = cfg.BaseURL
	}
	return &cfg, nil
}
