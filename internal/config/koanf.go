// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/e6tracker/config.yaml",
	"/etc/e6tracker/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvPathEnvVar overrides the .env file path.
const DotEnvPathEnvVar = "DOTENV_PATH"

// sliceConfigPaths are fields that arrive as comma-separated strings from env.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func defaultConfig() *Config {
	return &Config{
		Remote: RemoteConfig{
			BaseURL:     "https://e621.net/",
			UserAgent:   "e621-Favorite-Tracker/1.0",
			MinInterval: time.Second,
			Timeout:     30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/e6tracker.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Sync: SyncConfig{
			Enabled:  false,
			Schedule: "@every 30m",
			Pages:    1,
			Limit:    75,
			Observe:  ObserveAlways,
		},
		Import: ImportConfig{
			ChunkSize:     1000,
			ProgressPath:  "/data/import-progress",
			StaticBaseURL: "https://static1.e621.net/data/",
			MaxMemory:     "256MB",
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              5021,
			Timeout:           60 * time.Second,
			CORSOrigins:       []string{},
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration in layers:
//  1. struct defaults
//  2. YAML config file (optional)
//  3. .env file merged into the process environment (optional)
//  4. environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadDotEnv merges a .env file into the environment. Variables already
// set in the real environment win.
func loadDotEnv() error {
	path := os.Getenv(DotEnvPathEnvVar)
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envTransformFunc maps environment variable names onto koanf paths.
// Unmapped variables are dropped so unrelated environment does not leak
// into the configuration.
func envTransformFunc(key string) string {
	envMappings := map[string]string{
		// Remote API (names match the legacy tracker's .env)
		"e621_base_url":     "remote.base_url",
		"e621_username":     "remote.username",
		"e621_api_key":      "remote.api_key",
		"e621_user_agent":   "remote.user_agent",
		"e621_min_interval": "remote.min_interval",
		"e621_timeout":      "remote.timeout",

		// Database
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Sync
		"sync_enabled":  "sync.enabled",
		"sync_schedule": "sync.schedule",
		"sync_tags":     "sync.tags",
		"sync_pages":    "sync.pages",
		"sync_limit":    "sync.limit",
		"sync_observe":  "sync.observe",

		// Import
		"import_path":            "import.path",
		"import_tags_path":       "import.tags_path",
		"import_chunk_size":      "import.chunk_size",
		"import_progress_path":   "import.progress_path",
		"import_dry_run":         "import.dry_run",
		"import_auto_start":      "import.auto_start",
		"import_static_base_url": "import.static_base_url",
		"import_legacy_db_path":  "import.legacy_db_path",
		"import_work_dir":        "import.work_dir",
		"import_max_memory":      "import.max_memory",

		// Server (HOST/PORT match the legacy tracker's .env)
		"host":                "server.host",
		"port":                "server.port",
		"http_host":           "server.host",
		"http_port":           "server.port",
		"server_timeout":      "server.timeout",
		"cors_origins":        "server.cors_origins",
		"rate_limit_requests": "server.rate_limit_requests",
		"rate_limit_window":   "server.rate_limit_window",
		"disable_rate_limit":  "server.rate_limit_disabled",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Features
		"enable_tag_cooccurrence": "features.tag_cooccurrence",
	}

	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
