// Package config provides configuration management for the treegrid CLI.
//
// This package extends the shared project configuration from
// internal/config with CLI-specific fields (output mode, verbosity and the
// UI server settings).
package config

import (
	"time"

	intconfig "github.com/leapstack-labs/treegrid/internal/config"
)

// StoreConfig is an alias for the shared store configuration.
type StoreConfig = intconfig.StoreConfig

// SeedConfig is an alias for the shared seed configuration.
type SeedConfig = intconfig.SeedConfig

// PolicyConfig is an alias for the shared policy configuration.
type PolicyConfig = intconfig.PolicyConfig

// UIConfig holds configuration for the UI server.
type UIConfig struct {
	Port            int           `koanf:"port"`
	Watch           bool          `koanf:"watch"`
	Dev             bool          `koanf:"dev"`
	SessionSecret   string        `koanf:"session_secret"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DefaultUIConfig returns a UIConfig with default values.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Port:            DefaultPort,
		Watch:           true,
		SessionSecret:   DefaultSessionSecret,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// GetUIConfig returns the UI config with defaults applied for any unset values.
func (c *Config) GetUIConfig() *UIConfig {
	if c.UI == nil {
		return DefaultUIConfig()
	}
	ui := c.UI
	if ui.Port == 0 {
		ui.Port = DefaultPort
	}
	if ui.SessionSecret == "" {
		ui.SessionSecret = DefaultSessionSecret
	}
	if ui.ShutdownTimeout <= 0 {
		ui.ShutdownTimeout = DefaultShutdownTimeout
	}
	return ui
}

// Config holds all CLI configuration options.
type Config struct {
	Store        *StoreConfig `koanf:"store"`
	Seed         SeedConfig   `koanf:"seed"`
	Policy       PolicyConfig `koanf:"policy"`
	PageSize     int          `koanf:"page_size"`
	Verbose      bool         `koanf:"verbose"`
	OutputFormat string       `koanf:"output"`
	UI           *UIConfig    `koanf:"ui"`

	// ProjectRoot is the directory relative paths were resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values
const (
	DefaultOutput          = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultPort            = 8765
	DefaultShutdownTimeout = 5 * time.Second
	DefaultSessionSecret   = "treegrid-dev-secret-change-in-production" //nolint:gosec
)
