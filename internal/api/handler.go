// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

// Package api is the local HTTP surface of the tracker: the annotated
// remote listing, the local mirror, user actions (vote, favorite, hide),
// sync and import control, health and metrics.
package api

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/e6tracker/internal/cache"
	"github.com/tomtom215/e6tracker/internal/config"
	"github.com/tomtom215/e6tracker/internal/database"
	"github.com/tomtom215/e6tracker/internal/importer"
	"github.com/tomtom215/e6tracker/internal/remote"
	"github.com/tomtom215/e6tracker/internal/syncer"
	"github.com/tomtom215/e6tracker/internal/tracker"
)

// Comment threads are cached briefly; the board throttles every call.
const (
	commentCacheSize = 256
	commentCacheTTL  = 2 * time.Minute
)

// Remote is the part of the board client the handlers use.
type Remote interface {
	ListPosts(ctx context.Context, opts remote.ListOptions) ([]json.RawMessage, error)
	AddFavorite(ctx context.Context, postID int64) error
	RemoveFavorite(ctx context.Context, postID int64) error
	Vote(ctx context.Context, postID int64, score int, noUnvote bool) (remote.VoteResult, error)
	ListComments(ctx context.Context, postID int64) (json.RawMessage, error)
	BreakerState() string
}

// Ingester applies listing pages and serializes user writes with them.
type Ingester interface {
	IngestPage(ctx context.Context, raws []json.RawMessage) (*tracker.PageResult, error)
	Exclusive(ctx context.Context, fn func(tracker.Store) error) error
	Stats() *tracker.StatsTracker
	Registry() *tracker.TagRegistry
}

// SyncController runs and reports listing syncs.
type SyncController interface {
	TriggerSync(ctx context.Context) (*syncer.Result, error)
	Status() syncer.Status
}

// ImportController runs and reports the export import.
type ImportController interface {
	Start(ctx context.Context) error
	Stop() error
	GetStats() *importer.ImportStats
	IsRunning() bool
}

// Handler carries the dependencies of every endpoint. sync and imports
// may be nil; their endpoints then answer 503.
type Handler struct {
	cfg       *config.Config
	db        *database.DB
	remote    Remote
	ingester  Ingester
	sync      SyncController
	imports   ImportController
	comments  *cache.LRU[int64, json.RawMessage]
	startTime time.Time
}

// NewHandler wires the endpoint dependencies.
func NewHandler(cfg *config.Config, db *database.DB, rc Remote, ingester Ingester, sync SyncController, imports ImportController) *Handler {
	return &Handler{
		cfg:       cfg,
		db:        db,
		remote:    rc,
		ingester:  ingester,
		sync:      sync,
		imports:   imports,
		comments:  cache.NewLRU[int64, json.RawMessage](commentCacheSize, commentCacheTTL),
		startTime: time.Now(),
	}
}
