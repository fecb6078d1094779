// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

/*
Package config loads and validates e6tracker configuration.

# Configuration Sources

Values are layered with Koanf v2, later sources winning:

 1. struct defaults (defaultConfig)
 2. a YAML file from CONFIG_PATH or DefaultConfigPaths
 3. a .env file (DOTENV_PATH, default ".env") merged into the process
    environment without overriding variables that are already set
 4. environment variables

Only mapped environment variables are read; see envTransformFunc.

# Configuration Structure

  - RemoteConfig: board base URL, credentials, user agent, pacing
  - DatabaseConfig: DuckDB file and resource limits
  - SyncConfig: scheduled listing sync (cron spec, query, pages, observe mode)
  - ImportConfig: CSV export import, progress store, legacy SQLite path
  - ServerConfig: HTTP listener, CORS and rate limiting
  - LoggingConfig: zerolog level and output format
  - FeaturesConfig: optional tag co-occurrence tracking

# Common Variables

	E621_BASE_URL      board origin (default https://e621.net/)
	E621_USERNAME      account name, required with E621_API_KEY
	E621_API_KEY       API key, required with E621_USERNAME
	DUCKDB_PATH        database file (default /data/e6tracker.duckdb)
	SYNC_ENABLED       run the scheduled sync (default false)
	SYNC_SCHEDULE      cron spec (default "@every 30m")
	SYNC_OBSERVE       "always" or "favorited"
	IMPORT_PATH        posts export CSV
	IMPORT_AUTO_START  import IMPORT_PATH at server start
	IMPORT_MAX_MEMORY  memory cap of the export staging database (default 256MB)
	HOST, PORT         listener (default 0.0.0.0:5021)
	LOG_LEVEL          trace, debug, info, warn, error
	LOG_FORMAT         json or console

# Validation

Validate rejects inconsistent settings (half-set credentials, unknown
observe modes, unparsable cron specs) and normalizes E621_BASE_URL to
end with a slash.
*/
package config
