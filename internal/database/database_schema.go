// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext bounds schema operations at startup.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// Timestamps are stored as TIMESTAMP holding UTC; every value is supplied
// by the application so no time zone extension is needed.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS posts (
			id BIGINT PRIMARY KEY,
			uploader_id BIGINT NOT NULL,
			approver_id BIGINT,
			created_at TIMESTAMP NOT NULL,
			rating VARCHAR(1) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			file_ext VARCHAR NOT NULL DEFAULT '',
			file_size BIGINT NOT NULL DEFAULT 0,
			parent_id BIGINT,
			change_seq BIGINT NOT NULL,
			is_deleted BOOLEAN NOT NULL DEFAULT false,
			is_pending BOOLEAN NOT NULL DEFAULT false,
			comment_count INTEGER NOT NULL DEFAULT 0,
			fav_count INTEGER NOT NULL DEFAULT 0,
			score_total INTEGER NOT NULL DEFAULT 0,
			score_up INTEGER NOT NULL DEFAULT 0,
			score_down INTEGER NOT NULL DEFAULT 0,
			preview_url TEXT NOT NULL DEFAULT '',
			file_url TEXT NOT NULL DEFAULT '',
			first_seen_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,

		`CREATE SEQUENCE IF NOT EXISTS tags_id_seq START 1;`,

		`CREATE TABLE IF NOT EXISTS tags (
			id BIGINT PRIMARY KEY DEFAULT nextval('tags_id_seq'),
			name VARCHAR NOT NULL,
			category VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (name, category)
		);`,

		`CREATE TABLE IF NOT EXISTS post_tags (
			post_id BIGINT NOT NULL,
			tag_id BIGINT NOT NULL,
			PRIMARY KEY (post_id, tag_id)
		);`,

		`CREATE TABLE IF NOT EXISTS stats (
			post_id BIGINT PRIMARY KEY,
			favorited BOOLEAN NOT NULL DEFAULT false,
			vote TINYINT NOT NULL DEFAULT 0 CHECK (vote IN (-1, 0, 1)),
			hidden BOOLEAN NOT NULL DEFAULT false,
			first_seen_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS tag_cooccurrence (
			tag_a BIGINT NOT NULL,
			tag_b BIGINT NOT NULL,
			count BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (tag_a, tag_b),
			CHECK (tag_a < tag_b)
		);`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_post_tags_tag ON post_tags(tag_id);`,
		`CREATE INDEX IF NOT EXISTS idx_posts_change_seq ON posts(change_seq);`,
		`CREATE INDEX IF NOT EXISTS idx_tags_category ON tags(category);`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
