// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/e6tracker/internal/models"
)

func scanTag(row rowScanner) (models.Tag, error) {
	var (
		t        models.Tag
		category string
	)
	if err := row.Scan(&t.ID, &t.Name, &category, &t.CreatedAt); err != nil {
		return models.Tag{}, err
	}
	t.Category = models.TagCategory(category)
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

// LoadTags returns every tag row.
func (s *Store) LoadTags(ctx context.Context) (tags []models.Tag, err error) {
	defer observe("select", "tags", time.Now(), &err)

	rows, err := s.q.QueryContext(ctx, `SELECT id, name, category, created_at FROM tags ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// GetTag returns one tag by id or ErrNotFound.
func (s *Store) GetTag(ctx context.Context, id int64) (t models.Tag, err error) {
	defer observe("select", "tags", time.Now(), &err)

	t, err = scanTag(s.q.QueryRowContext(ctx, `SELECT id, name, category, created_at FROM tags WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Tag{}, fmt.Errorf("tag %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Tag{}, fmt.Errorf("failed to get tag %d: %w", id, err)
	}
	return t, nil
}

// InsertTag creates the (name, category) row and returns its id. A second
// insert of the same pair violates the unique constraint.
func (s *Store) InsertTag(ctx context.Context, key models.TagKey) (id int64, err error) {
	defer observe("insert", "tags", time.Now(), &err)

	err = s.q.QueryRowContext(ctx,
		`INSERT INTO tags (name, category, created_at) VALUES (?, ?, ?) RETURNING id`,
		key.Name, string(key.Category), time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert tag %s: %w", key, err)
	}
	return id, nil
}

// PostTagKeys returns the stored tag pairs of a post mapped to their ids.
func (s *Store) PostTagKeys(ctx context.Context, postID int64) (keys map[models.TagKey]int64, err error) {
	defer observe("select", "post_tags", time.Now(), &err)

	rows, err := s.q.QueryContext(ctx, `
		SELECT t.id, t.name, t.category
		FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id = ?`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags of post %d: %w", postID, err)
	}
	defer closeWithLog(rows, "rows")

	keys = make(map[models.TagKey]int64)
	for rows.Next() {
		var (
			id             int64
			name, category string
		)
		if err := rows.Scan(&id, &name, &category); err != nil {
			return nil, fmt.Errorf("failed to scan post tag: %w", err)
		}
		keys[models.TagKey{Name: name, Category: models.TagCategory(category)}] = id
	}
	return keys, rows.Err()
}

// PostTags returns the tags of a post ordered by category then name.
func (s *Store) PostTags(ctx context.Context, postID int64) (tags []models.Tag, err error) {
	defer observe("select", "post_tags", time.Now(), &err)

	rows, err := s.q.QueryContext(ctx, `
		SELECT t.id, t.name, t.category, t.created_at
		FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id = ?
		ORDER BY t.category, t.name`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags of post %d: %w", postID, err)
	}
	defer closeWithLog(rows, "rows")

	tags = []models.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// AddPostTag associates a tag with a post.
func (s *Store) AddPostTag(ctx context.Context, postID, tagID int64) (err error) {
	defer observe("insert", "post_tags", time.Now(), &err)

	if _, err = s.q.ExecContext(ctx, `INSERT INTO post_tags (post_id, tag_id) VALUES (?, ?)`, postID, tagID); err != nil {
		return fmt.Errorf("failed to tag post %d with %d: %w", postID, tagID, err)
	}
	return nil
}

// RemovePostTag drops the association. The tag row itself is kept.
func (s *Store) RemovePostTag(ctx context.Context, postID, tagID int64) (err error) {
	defer observe("delete", "post_tags", time.Now(), &err)

	if _, err = s.q.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = ? AND tag_id = ?`, postID, tagID); err != nil {
		return fmt.Errorf("failed to untag post %d from %d: %w", postID, tagID, err)
	}
	return nil
}
