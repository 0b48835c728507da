// Package config provides configuration loading and management for id8.
//
// Configuration is loaded using Viper, supporting YAML config files and
// environment variable overrides. The defaults work out of the box
// against a local backend; everything else is tuning knobs for the
// polling, reconciliation, and notification behavior.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//
// Configuration priority (highest to lowest):
//  1. Environment variables (ID8_ prefix, e.g. ID8_API_BASE_URL)
//  2. Config file specified by ID8_CONFIG_PATH
//  3. User config directory: ~/.config/id8/config.yaml
//  4. ./id8.yaml
//  5. [DefaultConfig] defaults
package config

import "time"

// Config represents the root configuration structure.
//
// This is the main configuration container loaded by [Loader] and used
// throughout the application. Use [DefaultConfig] for sensible
// defaults.
type Config struct {
	// API contains backend connection settings.
	API APIConfig `mapstructure:"api"`

	// Poll controls the deep-dive completion poller.
	Poll PollConfig `mapstructure:"poll"`

	// Reconcile controls the background board refresh.
	Reconcile ReconcileConfig `mapstructure:"reconcile"`

	// Shortlist locates the seen/shortlisted id-set file.
	Shortlist ShortlistConfig `mapstructure:"shortlist"`

	// Notifications controls the console progress sink.
	Notifications NotificationsConfig `mapstructure:"notifications"`
}

// APIConfig contains backend connection settings.
type APIConfig struct {
	// BaseURL is the root of the id8 backend REST API.
	// Default: "http://localhost:8000".
	BaseURL string `mapstructure:"base_url"`

	// Timeout bounds each individual HTTP request.
	// Default: 30s.
	Timeout time.Duration `mapstructure:"timeout"`
}

// PollConfig controls the completion poller used after the deep-dive
// job fires.
type PollConfig struct {
	// Interval is the delay between record re-fetches. Default: 2s.
	Interval time.Duration `mapstructure:"interval"`

	// MaxAttempts is the fetch budget before the poll times out.
	// Default: 30, i.e. roughly a one-minute window at the default
	// interval.
	MaxAttempts int `mapstructure:"max_attempts"`
}

// ReconcileConfig controls the background full-store refresh.
type ReconcileConfig struct {
	// Interval is the period between reconcile passes. Default: 10s.
	Interval time.Duration `mapstructure:"interval"`
}

// ShortlistConfig locates the seen/shortlisted id-set file.
type ShortlistConfig struct {
	// Path overrides the shortlist file location. Empty means the
	// default .id8/shortlist.yaml under the working directory. The
	// ID8_SHORTLIST_PATH environment variable takes priority over
	// both.
	Path string `mapstructure:"path"`
}

// NotificationsConfig controls the console progress sink.
type NotificationsConfig struct {
	// Enabled turns per-job progress lines on or off. Default: true.
	Enabled bool `mapstructure:"enabled"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 30 * time.Second,
		},
		Poll: PollConfig{
			Interval:    2 * time.Second,
			MaxAttempts: 30,
		},
		Reconcile: ReconcileConfig{
			Interval: 10 * time.Second,
		},
		Shortlist: ShortlistConfig{},
		Notifications: NotificationsConfig{
			Enabled: true,
		},
	}
}
