// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

// Package tracker merges externally sourced posts into the local mirror.
//
// The pieces are:
//   - TagRegistry: process-wide (name, category) -> id cache, with
//     per-transaction TagSessions so a rolled-back insert never leaks an id
//   - Reconciler: change_seq-gated scalar upsert plus minimal tag-set diff
//   - StatsTracker: local favorited/vote/hidden state kept per seen post
//   - Ingester: the single writer; runs pages and chunks in transactions
//     and isolates a failing record by replaying its chunk one by one
package tracker

import (
	"context"

	"github.com/tomtom215/e6tracker/internal/database"
	"github.com/tomtom215/e6tracker/internal/models"
)

// TagStore is the tag half of the store used by the registry.
type TagStore interface {
	LoadTags(ctx context.Context) ([]models.Tag, error)
	InsertTag(ctx context.Context, key models.TagKey) (int64, error)
}

// PostStore is what the reconciler reads and writes.
type PostStore interface {
	GetPost(ctx context.Context, id int64) (models.Post, error)
	InsertPost(ctx context.Context, p models.Post) error
	UpdatePostScalars(ctx context.Context, id int64, sc models.PostScalars) error
	UpdatePostURLs(ctx context.Context, id int64, previewURL, fileURL string) error
	PostTagKeys(ctx context.Context, postID int64) (map[models.TagKey]int64, error)
	AddPostTag(ctx context.Context, postID, tagID int64) error
	RemovePostTag(ctx context.Context, postID, tagID int64) error
	BumpCooccurrence(ctx context.Context, tagA, tagB, delta int64) error
}

// StatsStore is what the stats tracker reads and writes.
type StatsStore interface {
	GetStats(ctx context.Context, postID int64) (models.Stats, error)
	InsertStats(ctx context.Context, st models.Stats) error
	UpsertStats(ctx context.Context, st models.Stats) error
	UpdateFavorited(ctx context.Context, postID int64, favorited bool) error
	SetVote(ctx context.Context, postID int64, vote int) error
	SetFavorite(ctx context.Context, postID int64, favorited bool) error
	SetHidden(ctx context.Context, postID int64, hidden bool) error
}

// Store is the full method set one ingest transaction needs.
type Store interface {
	TagStore
	PostStore
	StatsStore
}

// TxRunner runs fn in a transaction that commits when fn returns nil.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(Store) error) error
}

// NewTxRunner adapts a database to TxRunner.
func NewTxRunner(db *database.DB) TxRunner {
	return dbRunner{db: db}
}

type dbRunner struct {
	db *database.DB
}

func (r dbRunner) WithTx(ctx context.Context, fn func(Store) error) error {
	return r.db.WithTx(ctx, func(s *database.Store) error {
		return fn(s)
	})
}

var _ Store = (*database.Store)(nil)
