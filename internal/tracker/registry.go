// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package tracker

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tomtom215/e6tracker/internal/logging"
	"github.com/tomtom215/e6tracker/internal/metrics"
	"github.com/tomtom215/e6tracker/internal/models"
)

// TagRegistry caches tag identities for the whole process. It is filled
// from the store on first use and afterwards only grows through committed
// TagSessions.
type TagRegistry struct {
	mu     sync.RWMutex
	cache  map[models.TagKey]int64
	loaded bool

	loadMu sync.Mutex
}

// NewTagRegistry creates an empty, not yet loaded registry.
func NewTagRegistry() *TagRegistry {
	return &TagRegistry{cache: make(map[models.TagKey]int64)}
}

// ensureLoaded reads every tag row once. A failed load is retried on the
// next call.
func (r *TagRegistry) ensureLoaded(ctx context.Context, store TagStore) error {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return nil
	}

	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	r.mu.RLock()
	loaded = r.loaded
	r.mu.RUnlock()
	if loaded {
		return nil
	}

	tags, err := store.LoadTags(ctx)
	if err != nil {
		return fmt.Errorf("load tag registry: %w", err)
	}

	r.mu.Lock()
	for _, t := range tags {
		r.cache[t.Key()] = t.ID
	}
	r.loaded = true
	size := len(r.cache)
	r.mu.Unlock()

	metrics.TagRegistrySize.Set(float64(size))
	logging.Ctx(ctx).Info().Int("tags", size).Msg("Tag registry loaded")
	return nil
}

// Lookup returns a committed tag id.
func (r *TagRegistry) Lookup(key models.TagKey) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.cache[key]
	return id, ok
}

// Len returns the number of committed entries.
func (r *TagRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

// Begin opens a resolution session bound to store, usually a transaction.
func (r *TagRegistry) Begin(ctx context.Context, store TagStore) (*TagSession, error) {
	if err := r.ensureLoaded(ctx, store); err != nil {
		return nil, err
	}
	return &TagSession{registry: r, store: store, pending: make(map[models.TagKey]int64)}, nil
}

func (r *TagRegistry) merge(pending map[models.TagKey]int64) {
	if len(pending) == 0 {
		return
	}
	r.mu.Lock()
	for k, id := range pending {
		r.cache[k] = id
	}
	size := len(r.cache)
	r.mu.Unlock()

	metrics.TagsCreated.Add(float64(len(pending)))
	metrics.TagRegistrySize.Set(float64(size))
}

// TagSession resolves tags inside one transaction. Ids it creates stay
// private until Commit.
type TagSession struct {
	registry *TagRegistry
	store    TagStore
	pending  map[models.TagKey]int64
	done     bool
}

// Resolve returns the id of key, inserting the tag row on a miss. Each
// missing pair is inserted at most once per session.
func (s *TagSession) Resolve(ctx context.Context, key models.TagKey) (int64, error) {
	if s.done {
		return 0, fmt.Errorf("tag session already closed")
	}
	if !key.Category.Valid() {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidCategory, key.Category)
	}
	if strings.TrimSpace(key.Name) == "" {
		return 0, fmt.Errorf("empty tag name in category %s", key.Category)
	}

	if id, ok := s.pending[key]; ok {
		return id, nil
	}
	if id, ok := s.registry.Lookup(key); ok {
		return id, nil
	}

	id, err := s.store.InsertTag(ctx, key)
	if err != nil {
		return 0, err
	}
	s.pending[key] = id
	return id, nil
}

// Commit publishes the session's new ids. Call it after the transaction
// committed.
func (s *TagSession) Commit() {
	if s == nil || s.done {
		return
	}
	s.done = true
	s.registry.merge(s.pending)
	s.pending = nil
}

// Discard drops the session's new ids. Call it after a rollback.
func (s *TagSession) Discard() {
	if s == nil || s.done {
		return
	}
	s.done = true
	s.pending = nil
}
