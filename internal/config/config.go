// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package config

import (
	"time"
)

// Observe modes decide which fetched posts get a stats row.
const (
	ObserveAlways    = "always"
	ObserveFavorited = "favorited"
)

// Config holds all application configuration.
type Config struct {
	Remote   RemoteConfig   `koanf:"remote"`
	Database DatabaseConfig `koanf:"database"`
	Sync     SyncConfig     `koanf:"sync"`
	Import   ImportConfig   `koanf:"import"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Features FeaturesConfig `koanf:"features"`
}

// RemoteConfig describes the content-board API and the credentials used
// against it. Credentials are passed through untouched.
type RemoteConfig struct {
	BaseURL  string `koanf:"base_url"`
	Username string `koanf:"username"`
	APIKey   string `koanf:"api_key"`

	// UserAgent is the product/version prefix; the username is appended
	// as "(user: <name>)".
	UserAgent string `koanf:"user_agent"`

	// MinInterval is the minimum gap between the end of one remote call
	// and the start of the next.
	MinInterval time.Duration `koanf:"min_interval"`
	Timeout     time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// SyncConfig controls the scheduled listing sync.
type SyncConfig struct {
	Enabled bool `koanf:"enabled"`

	// Schedule is a robfig/cron spec, e.g. "@every 30m" or "0 */2 * * *".
	Schedule string `koanf:"schedule"`

	// Tags is the listing query; empty means "fav:<username>".
	Tags  string `koanf:"tags"`
	Pages int    `koanf:"pages"`
	Limit int    `koanf:"limit"`

	// Observe is "always" or "favorited".
	Observe string `koanf:"observe"`
}

// ImportConfig controls the offline CSV export import.
type ImportConfig struct {
	Path          string `koanf:"path"`
	TagsPath      string `koanf:"tags_path"`
	ChunkSize     int    `koanf:"chunk_size"`
	ProgressPath  string `koanf:"progress_path"`
	DryRun        bool   `koanf:"dry_run"`
	AutoStart     bool   `koanf:"auto_start"`
	StaticBaseURL string `koanf:"static_base_url"`

	// WorkDir holds the scratch database the export is staged in.
	// Empty means os.TempDir().
	WorkDir string `koanf:"work_dir"`

	// MaxMemory caps the staging database; larger exports spill to WorkDir.
	MaxMemory string `koanf:"max_memory"`

	// LegacyDBPath points at the SQLite database written by the legacy
	// tracker (viewed_list table).
	LegacyDBPath string `koanf:"legacy_db_path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	Timeout           time.Duration `koanf:"timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// FeaturesConfig holds optional feature toggles.
type FeaturesConfig struct {
	// TagCooccurrence maintains pairwise tag counts during reconciliation.
	TagCooccurrence bool `koanf:"tag_cooccurrence"`
}

// Load loads configuration from all sources.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// ListingTags returns the configured listing query, defaulting to the
// user's own favorites.
func (c *Config) ListingTags() string {
	if c.Sync.Tags != "" {
		return c.Sync.Tags
	}
	if c.Remote.Username == "" {
		return ""
	}
	return "fav:" + c.Remote.Username
}
