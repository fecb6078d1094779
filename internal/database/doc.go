// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

/*
Package database is the DuckDB-backed local mirror of the board.

# Tables

  - posts: one row per post id, scalar columns plus preview/file URLs
  - tags: (name, category) pairs with a sequence-assigned id
  - post_tags: the post-tag association
  - stats: locally owned state (favorited, vote, hidden, first_seen_at)
  - tag_cooccurrence: pair counts with tag_a < tag_b, kept only when
    ENABLE_TAG_COOCCURRENCE is on

createTables holds the base schema. Later changes are appended to
getMigrations and recorded in schema_migrations, so they run once per
database file.

# Stores and Transactions

Row-level operations live on *Store, which runs against either the pool
(autocommit, via DB.Store) or one transaction (inside DB.WithTx). The
tracker package drives ingestion through WithTx so that a chunk of
records lands atomically; a panic or error inside fn rolls back.

Lookups that match no row return ErrNotFound.

# Observability

Every Store query records duckdb_query_duration_seconds and, for
failures other than ErrNotFound, duckdb_query_errors_total.

# Configuration

	DUCKDB_PATH        database file, ":memory:" for tests
	DUCKDB_MAX_MEMORY  DuckDB memory limit (default 1GB)
	DUCKDB_THREADS     worker threads, 0 for one per CPU

Extension autoloading is disabled; the schema uses core types only.
*/
package database
