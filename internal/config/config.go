// Package config loads site-analytics settings.
//
// Values are resolved in order of precedence: command-line flags (applied by
// the caller), environment variables, the TOML config file, then built-in
// defaults. The config file lives at ~/.site-analytics/config.toml unless
// SITE_ANALYTICS_CONFIG or --config points elsewhere; a missing file is not
// an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/rcliao/site-analytics/internal/model"
)

// Environment variables read by ApplyEnvOverrides. EnvMaxBytes must be a
// whole number of bytes.
const (
	EnvConfig   = "SITE_ANALYTICS_CONFIG"
	EnvDB       = "SITE_ANALYTICS_DB"
	EnvBackend  = "SITE_ANALYTICS_BACKEND"
	EnvMaxBytes = "SITE_ANALYTICS_MAX_BYTES"
)

// Backend names.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// DefaultMaxBytes mirrors the per-origin quota of browser local storage.
const DefaultMaxBytes = 5 << 20

// Config is the complete site-analytics configuration.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Dashboard DashboardConfig `toml:"dashboard"`
	Search    SearchConfig    `toml:"search"`
}

// StorageConfig selects and tunes the persistent slot.
type StorageConfig struct {
	// Backend is "sqlite" or "file".
	Backend string `toml:"backend"`
	// Path is the SQLite database file, or the directory for the file backend.
	Path string `toml:"path"`
	// Key is the slot the analytics blob is stored under.
	Key string `toml:"key"`
	// MaxBytes caps the stored blob (0 = unlimited).
	MaxBytes int `toml:"max_bytes"`
}

// DashboardConfig holds dashboard list sizes.
type DashboardConfig struct {
	TopPages          int `toml:"top_pages"`
	RecentSearches    int `toml:"recent_searches"`
	ZeroResultQueries int `toml:"zero_result_queries"`
}

// SearchConfig holds search-input debounce timings in milliseconds.
type SearchConfig struct {
	QuietMS  int `toml:"quiet_ms"`
	SettleMS int `toml:"settle_ms"`
}

// Quiet returns QuietMS as a duration.
func (s SearchConfig) Quiet() time.Duration {
	return time.Duration(s.QuietMS) * time.Millisecond
}

// Settle returns SettleMS as a duration.
func (s SearchConfig) Settle() time.Duration {
	return time.Duration(s.SettleMS) * time.Millisecond
}

// Dir returns ~/.site-analytics.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".site-analytics")
}

// DefaultPath returns the config file location, honoring SITE_ANALYTICS_CONFIG.
func DefaultPath() string {
	if env := os.Getenv(EnvConfig); env != "" {
		return env
	}
	return filepath.Join(Dir(), "config.toml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:  BackendSQLite,
			Path:     filepath.Join(Dir(), "analytics.db"),
			Key:      model.StorageKey,
			MaxBytes: DefaultMaxBytes,
		},
		Dashboard: DashboardConfig{
			TopPages:          10,
			RecentSearches:    10,
			ZeroResultQueries: 10,
		},
		Search: SearchConfig{
			QuietMS:  500,
			SettleMS: 300,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path means DefaultPath; a missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	// The default path depends on the backend, so SetDefaults picks it.
	cfg.Storage.Path = ""
	if path == "" {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies SITE_ANALYTICS_* environment variables. A value
// that does not parse is reported and leaves the field unchanged.
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv(EnvDB); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv(EnvMaxBytes); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %q is not a byte count", EnvMaxBytes, v)
		}
		c.Storage.MaxBytes = n
	}
	return nil
}

// SetDefaults fills zero values left by a partial config file.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Storage.Path == "" {
		c.Storage.Path = d.Storage.Path
		if c.Storage.Backend == BackendFile {
			c.Storage.Path = filepath.Join(Dir(), "data")
		}
	}
	if c.Storage.Key == "" {
		c.Storage.Key = d.Storage.Key
	}
	if c.Dashboard.TopPages == 0 {
		c.Dashboard.TopPages = d.Dashboard.TopPages
	}
	if c.Dashboard.RecentSearches == 0 {
		c.Dashboard.RecentSearches = d.Dashboard.RecentSearches
	}
	if c.Dashboard.ZeroResultQueries == 0 {
		c.Dashboard.ZeroResultQueries = d.Dashboard.ZeroResultQueries
	}
	if c.Search.QuietMS == 0 {
		c.Search.QuietMS = d.Search.QuietMS
	}
	if c.Search.SettleMS == 0 {
		c.Search.SettleMS = d.Search.SettleMS
	}
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case BackendSQLite, BackendFile:
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unknown backend %q (use sqlite or file)", c.Storage.Backend))
	}
	if strings.ContainsAny(c.Storage.Key, `/\`) {
		errs = append(errs, fmt.Errorf("storage.key: %q must not contain path separators", c.Storage.Key))
	}
	if c.Storage.MaxBytes < 0 {
		errs = append(errs, fmt.Errorf("storage.max_bytes: must be >= 0, got %d", c.Storage.MaxBytes))
	}
	for _, f := range []struct {
		name string
		v    int
	}{
		{"dashboard.top_pages", c.Dashboard.TopPages},
		{"dashboard.recent_searches", c.Dashboard.RecentSearches},
		{"dashboard.zero_result_queries", c.Dashboard.ZeroResultQueries},
		{"search.quiet_ms", c.Search.QuietMS},
		{"search.settle_ms", c.Search.SettleMS},
	} {
		if f.v < 0 {
			errs = append(errs, fmt.Errorf("%s: must be >= 0, got %d", f.name, f.v))
		}
	}
	return errors.Join(errs...)
}
