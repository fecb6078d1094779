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

const postColumns = `p.id, p.uploader_id, p.approver_id, p.created_at, p.rating, p.description,
	p.file_ext, p.file_size, p.parent_id, p.change_seq, p.is_deleted, p.is_pending,
	p.comment_count, p.fav_count, p.score_total, p.score_up, p.score_down,
	p.preview_url, p.file_url, p.first_seen_at, p.updated_at`

// Default and maximum page sizes for ListPosts.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// PostFilter narrows ListPosts. Zero values mean "no constraint".
type PostFilter struct {
	Tag       string
	Category  models.TagCategory
	Favorited *bool
	Hidden    *bool
	Limit     int
	Offset    int
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (models.Post, error) {
	var (
		p                         models.Post
		approver, parent          sql.NullInt64
		createdAt, first, updated time.Time
	)
	err := row.Scan(
		&p.ID, &p.UploaderID, &approver, &createdAt, &p.Rating, &p.Description,
		&p.FileExt, &p.FileSize, &parent, &p.ChangeSeq, &p.IsDeleted, &p.IsPending,
		&p.CommentCount, &p.FavCount, &p.ScoreTotal, &p.ScoreUp, &p.ScoreDown,
		&p.PreviewURL, &p.FileURL, &first, &updated,
	)
	if err != nil {
		return models.Post{}, err
	}
	if approver.Valid {
		v := approver.Int64
		p.ApproverID = &v
	}
	if parent.Valid {
		v := parent.Int64
		p.ParentID = &v
	}
	p.CreatedAt = createdAt.UTC()
	p.FirstSeenAt = first.UTC()
	p.UpdatedAt = updated.UTC()
	return p, nil
}

// nullableID maps a nil pointer to SQL NULL.
func nullableID(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// GetPost returns the mirrored post or ErrNotFound.
func (s *Store) GetPost(ctx context.Context, id int64) (p models.Post, err error) {
	defer observe("select", "posts", time.Now(), &err)

	row := s.q.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = ?`, id)
	p, err = scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Post{}, fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Post{}, fmt.Errorf("failed to get post %d: %w", id, err)
	}
	return p, nil
}

// InsertPost stores a new post verbatim. FirstSeenAt and UpdatedAt are
// set to now when zero.
func (s *Store) InsertPost(ctx context.Context, p models.Post) (err error) {
	defer observe("insert", "posts", time.Now(), &err)

	now := time.Now().UTC()
	if p.FirstSeenAt.IsZero() {
		p.FirstSeenAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO posts (id, uploader_id, approver_id, created_at, rating, description,
			file_ext, file_size, parent_id, change_seq, is_deleted, is_pending,
			comment_count, fav_count, score_total, score_up, score_down,
			preview_url, file_url, first_seen_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UploaderID, nullableID(p.ApproverID), p.CreatedAt.UTC(), p.Rating, p.Description,
		p.FileExt, p.FileSize, nullableID(p.ParentID), p.ChangeSeq, p.IsDeleted, p.IsPending,
		p.CommentCount, p.FavCount, p.ScoreTotal, p.ScoreUp, p.ScoreDown,
		p.PreviewURL, p.FileURL, p.FirstSeenAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post %d: %w", p.ID, err)
	}
	return nil
}

// UpdatePostScalars replaces every version-gated field of a post.
func (s *Store) UpdatePostScalars(ctx context.Context, id int64, sc models.PostScalars) (err error) {
	defer observe("update", "posts", time.Now(), &err)

	_, err = s.q.ExecContext(ctx, `
		UPDATE posts SET
			uploader_id = ?, approver_id = ?, created_at = ?, rating = ?, description = ?,
			file_ext = ?, file_size = ?, parent_id = ?, change_seq = ?, is_deleted = ?,
			is_pending = ?, comment_count = ?, fav_count = ?, score_total = ?,
			score_up = ?, score_down = ?, updated_at = ?
		WHERE id = ?`,
		sc.UploaderID, nullableID(sc.ApproverID), sc.CreatedAt.UTC(), sc.Rating, sc.Description,
		sc.FileExt, sc.FileSize, nullableID(sc.ParentID), sc.ChangeSeq, sc.IsDeleted,
		sc.IsPending, sc.CommentCount, sc.FavCount, sc.ScoreTotal,
		sc.ScoreUp, sc.ScoreDown, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update post %d: %w", id, err)
	}
	return nil
}

// UpdatePostURLs refreshes the file-serving URLs of a post.
func (s *Store) UpdatePostURLs(ctx context.Context, id int64, previewURL, fileURL string) (err error) {
	defer observe("update", "posts", time.Now(), &err)

	_, err = s.q.ExecContext(ctx,
		`UPDATE posts SET preview_url = ?, file_url = ? WHERE id = ?`,
		previewURL, fileURL, id)
	if err != nil {
		return fmt.Errorf("failed to update urls of post %d: %w", id, err)
	}
	return nil
}

// ListPosts returns mirrored posts, newest id first.
func (s *Store) ListPosts(ctx context.Context, f PostFilter) (posts []models.Post, err error) {
	defer observe("select", "posts", time.Now(), &err)

	var (
		where []string
		args  []interface{}
	)
	if f.Tag != "" {
		cond := `EXISTS (SELECT 1 FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
			WHERE pt.post_id = p.id AND t.name = ?`
		args = append(args, f.Tag)
		if f.Category != "" {
			cond += ` AND t.category = ?`
			args = append(args, string(f.Category))
		}
		where = append(where, cond+`)`)
	}
	if f.Favorited != nil {
		where = append(where, `COALESCE(s.favorited, false) = ?`)
		args = append(args, *f.Favorited)
	}
	if f.Hidden != nil {
		where = append(where, `COALESCE(s.hidden, false) = ?`)
		args = append(args, *f.Hidden)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + postColumns + ` FROM posts p LEFT JOIN stats s ON s.post_id = p.id`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY p.id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer closeWithLog(rows, "rows")

	posts = make([]models.Post, 0, limit)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Summary counts the rows of the local mirror.
func (s *Store) Summary(ctx context.Context) (sum models.StoreSummary, err error) {
	defer observe("select", "summary", time.Now(), &err)

	err = s.q.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM posts),
			(SELECT COUNT(*) FROM tags),
			(SELECT COUNT(*) FROM post_tags),
			(SELECT COUNT(*) FROM stats),
			(SELECT COUNT(*) FROM stats WHERE favorited),
			(SELECT COUNT(*) FROM stats WHERE hidden)`,
	).Scan(&sum.Posts, &sum.Tags, &sum.PostTags, &sum.Seen, &sum.Favorited, &sum.Hidden)
	if err != nil {
		return models.StoreSummary{}, fmt.Errorf("failed to summarize store: %w", err)
	}
	return sum, nil
}
