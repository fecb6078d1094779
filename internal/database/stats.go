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
	"strings"
	"time"

	"github.com/tomtom215/e6tracker/internal/models"
)

const statsColumns = `post_id, favorited, vote, hidden, first_seen_at, updated_at`

func scanStats(row rowScanner) (models.Stats, error) {
	var st models.Stats
	if err := row.Scan(&st.PostID, &st.Favorited, &st.Vote, &st.Hidden, &st.FirstSeenAt, &st.UpdatedAt); err != nil {
		return models.Stats{}, err
	}
	st.FirstSeenAt = st.FirstSeenAt.UTC()
	st.UpdatedAt = st.UpdatedAt.UTC()
	return st, nil
}

// GetStats returns the stats row of a post or ErrNotFound.
func (s *Store) GetStats(ctx context.Context, postID int64) (st models.Stats, err error) {
	defer observe("select", "stats", time.Now(), &err)

	st, err = scanStats(s.q.QueryRowContext(ctx, `SELECT `+statsColumns+` FROM stats WHERE post_id = ?`, postID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Stats{}, fmt.Errorf("stats of post %d: %w", postID, ErrNotFound)
	}
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to get stats of post %d: %w", postID, err)
	}
	return st, nil
}

// InsertStats creates the stats row of a first-seen post.
func (s *Store) InsertStats(ctx context.Context, st models.Stats) (err error) {
	defer observe("insert", "stats", time.Now(), &err)

	_, err = s.q.ExecContext(ctx,
		`INSERT INTO stats (`+statsColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		st.PostID, st.Favorited, st.Vote, st.Hidden, st.FirstSeenAt.UTC(), st.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert stats of post %d: %w", st.PostID, err)
	}
	return nil
}

// UpsertStats writes favorited, vote and hidden, keeping first_seen_at of
// an existing row.
func (s *Store) UpsertStats(ctx context.Context, st models.Stats) (err error) {
	defer observe("upsert", "stats", time.Now(), &err)

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO stats (`+statsColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (post_id) DO UPDATE SET
			favorited = EXCLUDED.favorited,
			vote = EXCLUDED.vote,
			hidden = EXCLUDED.hidden,
			updated_at = EXCLUDED.updated_at`,
		st.PostID, st.Favorited, st.Vote, st.Hidden, st.FirstSeenAt.UTC(), st.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert stats of post %d: %w", st.PostID, err)
	}
	return nil
}

func (s *Store) updateStatsColumn(ctx context.Context, column string, postID int64, value interface{}) (err error) {
	defer observe("update", "stats", time.Now(), &err)

	// column is always one of the fixed names below.
	_, err = s.q.ExecContext(ctx,
		`UPDATE stats SET `+column+` = ?, updated_at = ? WHERE post_id = ?`,
		value, time.Now().UTC(), postID)
	if err != nil {
		return fmt.Errorf("failed to update %s of post %d: %w", column, postID, err)
	}
	return nil
}

// UpdateFavorited records the favorite state observed on a fetch.
func (s *Store) UpdateFavorited(ctx context.Context, postID int64, favorited bool) error {
	return s.updateStatsColumn(ctx, "favorited", postID, favorited)
}

// SetFavorite records a favorite change made by the user.
func (s *Store) SetFavorite(ctx context.Context, postID int64, favorited bool) error {
	return s.updateStatsColumn(ctx, "favorited", postID, favorited)
}

// SetVote stores the user's vote. Callers validate the range; the CHECK
// constraint rejects anything else.
func (s *Store) SetVote(ctx context.Context, postID int64, vote int) error {
	return s.updateStatsColumn(ctx, "vote", postID, vote)
}

// SetHidden stores the hidden flag.
func (s *Store) SetHidden(ctx context.Context, postID int64, hidden bool) error {
	return s.updateStatsColumn(ctx, "hidden", postID, hidden)
}

// StatsForPosts returns the stats rows that exist for the given posts.
func (s *Store) StatsForPosts(ctx context.Context, postIDs []int64) (out map[int64]models.Stats, err error) {
	out = make(map[int64]models.Stats, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	defer observe("select", "stats", time.Now(), &err)

	placeholders := make([]string, len(postIDs))
	args := make([]interface{}, len(postIDs))
	for i, id := range postIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT `+statsColumns+` FROM stats WHERE post_id IN (`+strings.Join(placeholders, ", ")+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		st, err := scanStats(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		out[st.PostID] = st
	}
	return out, rows.Err()
}
