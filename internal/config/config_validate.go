// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateRemote(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateSync(); err != nil {
		return err
	}

	if err := c.validateImport(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateRemote() error {
	if c.Remote.BaseURL == "" {
		return fmt.Errorf("E621_BASE_URL is required")
	}
	if err := validateHTTPURL(c.Remote.BaseURL, "E621_BASE_URL"); err != nil {
		return err
	}
	if !strings.HasSuffix(c.Remote.BaseURL, "/") {
		c.Remote.BaseURL += "/"
	}
	if c.Remote.MinInterval < 0 {
		return fmt.Errorf("E621_MIN_INTERVAL must not be negative, got %v", c.Remote.MinInterval)
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("E621_TIMEOUT must be positive, got %v", c.Remote.Timeout)
	}
	if (c.Remote.Username == "") != (c.Remote.APIKey == "") {
		return fmt.Errorf("E621_USERNAME and E621_API_KEY must be set together")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateSync() error {
	switch c.Sync.Observe {
	case ObserveAlways, ObserveFavorited:
	default:
		return fmt.Errorf("SYNC_OBSERVE must be %q or %q, got %q", ObserveAlways, ObserveFavorited, c.Sync.Observe)
	}

	if c.Sync.Limit < 1 || c.Sync.Limit > 320 {
		return fmt.Errorf("SYNC_LIMIT must be between 1 and 320, got %d", c.Sync.Limit)
	}

	if !c.Sync.Enabled {
		return nil
	}
	if c.Sync.Pages < 1 {
		return fmt.Errorf("SYNC_PAGES must be at least 1, got %d", c.Sync.Pages)
	}
	if _, err := cron.ParseStandard(c.Sync.Schedule); err != nil {
		return fmt.Errorf("SYNC_SCHEDULE %q is invalid: %w", c.Sync.Schedule, err)
	}
	if c.ListingTags() == "" {
		return fmt.Errorf("SYNC_TAGS or E621_USERNAME is required when SYNC_ENABLED=true")
	}
	return nil
}

func (c *Config) validateImport() error {
	if c.Import.ChunkSize < 1 {
		return fmt.Errorf("IMPORT_CHUNK_SIZE must be positive, got %d", c.Import.ChunkSize)
	}
	if c.Import.AutoStart && c.Import.Path == "" {
		return fmt.Errorf("IMPORT_PATH is required when IMPORT_AUTO_START=true")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitRequests < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.Server.RateLimitRequests)
		}
		if c.Server.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Server.RateLimitWindow)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is invalid", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
