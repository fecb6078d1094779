// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package importer

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for the legacy tracker's database

	"github.com/tomtom215/e6tracker/internal/logging"
	"github.com/tomtom215/e6tracker/internal/models"
	"github.com/tomtom215/e6tracker/internal/tracker"
)

// legacyBatchSize is the number of stats rows written per transaction.
const legacyBatchSize = 500

// Writer runs fn under the store's single-writer lock.
type Writer interface {
	Exclusive(ctx context.Context, fn func(tracker.Store) error) error
}

// LegacyStats reports a legacy import.
type LegacyStats struct {
	Rows     int64 `json:"rows"`
	Imported int64 `json:"imported"`
	Skipped  int64 `json:"skipped"`
}

// LegacyImporter copies viewed_list rows of the legacy tracker into the
// stats table.
type LegacyImporter struct {
	path   string
	writer Writer
	now    func() time.Time
}

// NewLegacyImporter creates an importer for the SQLite file at path.
func NewLegacyImporter(path string, writer Writer) *LegacyImporter {
	return &LegacyImporter{path: path, writer: writer, now: time.Now}
}

type legacyRow struct {
	imageID   int64
	favorited sql.NullBool
	viewed    sql.NullBool
	vote      sql.NullInt64
}

// Import reads every viewed_list row and upserts its stats. Rows with an
// out-of-range vote are skipped.
func (l *LegacyImporter) Import(ctx context.Context) (*LegacyStats, error) {
	rows, err := l.read(ctx)
	if err != nil {
		return nil, err
	}

	log := logging.Ctx(ctx)
	stats := &LegacyStats{Rows: int64(len(rows))}
	now := l.now().UTC()

	batch := make([]models.Stats, 0, legacyBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := l.writer.Exclusive(ctx, func(s tracker.Store) error {
			for _, st := range batch {
				if err := s.UpsertStats(ctx, st); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("write legacy stats: %w", err)
		}
		stats.Imported += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	for _, r := range rows {
		vote := int(r.vote.Int64)
		if err := models.ValidateVote(vote); err != nil {
			stats.Skipped++
			log.Warn().Int64("post_id", r.imageID).Err(err).Msg("Legacy row skipped")
			continue
		}
		batch = append(batch, models.Stats{
			PostID:      r.imageID,
			Favorited:   r.favorited.Bool,
			Vote:        vote,
			Hidden:      r.viewed.Bool,
			FirstSeenAt: now,
			UpdatedAt:   now,
		})
		if len(batch) >= legacyBatchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}

	log.Info().
		Str("path", l.path).
		Int64("rows", stats.Rows).
		Int64("imported", stats.Imported).
		Int64("skipped", stats.Skipped).
		Msg("Legacy import completed")
	return stats, nil
}

func (l *LegacyImporter) read(ctx context.Context) ([]legacyRow, error) {
	dsn := "file:" + (&url.URL{Path: l.path}).EscapedPath() + "?mode=ro"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open legacy database: %w", err)
	}
	defer closeWithLog(db, "legacy database")

	rows, err := db.QueryContext(ctx,
		`SELECT image_id, is_favorited, is_viewed, my_vote FROM viewed_list ORDER BY image_id`)
	if err != nil {
		return nil, fmt.Errorf("read viewed_list: %w", err)
	}
	defer closeWithLog(rows, "viewed_list rows")

	var out []legacyRow
	for rows.Next() {
		var r legacyRow
		if err := rows.Scan(&r.imageID, &r.favorited, &r.viewed, &r.vote); err != nil {
			return nil, fmt.Errorf("scan viewed_list: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read viewed_list: %w", err)
	}
	return out, nil
}
