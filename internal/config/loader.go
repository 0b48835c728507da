package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader loads configuration from files and environment variables.
//
// Use [NewLoader] to create one and [Loader.Load] to produce a
// [Config]. Each Loader owns its own viper instance, so loads do not
// leak state into package-level globals.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a Loader with defaults registered and the ID8_
// environment prefix active.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")

	def := DefaultConfig()
	v.SetDefault("api.base_url", def.API.BaseURL)
	v.SetDefault("api.timeout", def.API.Timeout)
	v.SetDefault("poll.interval", def.Poll.Interval)
	v.SetDefault("poll.max_attempts", def.Poll.MaxAttempts)
	v.SetDefault("reconcile.interval", def.Reconcile.Interval)
	v.SetDefault("shortlist.path", def.Shortlist.Path)
	v.SetDefault("notifications.enabled", def.Notifications.Enabled)

	v.SetEnvPrefix("ID8")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// Load reads configuration following the priority order documented in
// the package comment. A missing config file is not an error; a
// malformed one is.
func (l *Loader) Load() (*Config, error) {
	if path := os.Getenv("ID8_CONFIG_PATH"); path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return l.unmarshal()
	}

	for _, path := range searchPaths() {
		l.v.SetConfigFile(path)
		err := l.v.ReadInConfig()
		if err == nil {
			return l.unmarshal()
		}
		if os.IsNotExist(err) || errors.As(err, new(viper.ConfigFileNotFoundError)) {
			continue
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// No config file found anywhere; defaults plus env are enough.
	return l.unmarshal()
}

// unmarshal decodes the viper state into a Config.
func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// searchPaths lists the config file locations tried in order when
// ID8_CONFIG_PATH is unset.
func searchPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "id8", "config.yaml"))
	}
	paths = append(paths, "id8.yaml")
	return paths
}
