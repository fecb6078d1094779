// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/e6tracker/internal/models"
)

// BumpCooccurrence adds delta to the pair count of two tags. The pair is
// stored with the smaller id first; counts never drop below zero.
func (s *Store) BumpCooccurrence(ctx context.Context, tagA, tagB, delta int64) (err error) {
	if tagA == tagB || delta == 0 {
		return nil
	}
	if tagA > tagB {
		tagA, tagB = tagB, tagA
	}
	defer observe("upsert", "tag_cooccurrence", time.Now(), &err)

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO tag_cooccurrence (tag_a, tag_b, count) VALUES (?, ?, GREATEST(CAST(? AS BIGINT), 0))
		ON CONFLICT (tag_a, tag_b) DO UPDATE SET
			count = GREATEST(tag_cooccurrence.count + CAST(? AS BIGINT), 0)`,
		tagA, tagB, delta, delta)
	if err != nil {
		return fmt.Errorf("failed to update co-occurrence of %d/%d: %w", tagA, tagB, err)
	}
	return nil
}

// RelatedTags returns the partners of a tag ordered by shared post count.
func (s *Store) RelatedTags(ctx context.Context, tagID int64, limit int) (related []models.RelatedTag, err error) {
	defer observe("select", "tag_cooccurrence", time.Now(), &err)

	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultListLimit
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT t.id, t.name, t.category, t.created_at, c.count
		FROM (
			SELECT tag_b AS other, count FROM tag_cooccurrence WHERE tag_a = ? AND count > 0
			UNION ALL
			SELECT tag_a AS other, count FROM tag_cooccurrence WHERE tag_b = ? AND count > 0
		) c
		JOIN tags t ON t.id = c.other
		ORDER BY c.count DESC, t.name
		LIMIT ?`, tagID, tagID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query related tags of %d: %w", tagID, err)
	}
	defer closeWithLog(rows, "rows")

	related = []models.RelatedTag{}
	for rows.Next() {
		var (
			r        models.RelatedTag
			category string
		)
		if err := rows.Scan(&r.Tag.ID, &r.Tag.Name, &category, &r.Tag.CreatedAt, &r.Count); err != nil {
			return nil, fmt.Errorf("failed to scan related tag: %w", err)
		}
		r.Tag.Category = models.TagCategory(category)
		r.Tag.CreatedAt = r.Tag.CreatedAt.UTC()
		related = append(related, r)
	}
	return related, rows.Err()
}
