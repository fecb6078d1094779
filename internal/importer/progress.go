// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// progressKey is the BadgerDB key for storing import progress.
const progressKey = "import:export:progress"

// BadgerProgress implements ProgressTracker using BadgerDB for persistence.
type BadgerProgress struct {
	db    *badger.DB
	owned bool
}

// NewBadgerProgress creates a progress tracker over an open BadgerDB.
func NewBadgerProgress(db *badger.DB) *BadgerProgress {
	return &BadgerProgress{db: db}
}

// OpenBadgerProgress opens (creating if needed) a BadgerDB at path. Close
// releases it.
func OpenBadgerProgress(path string) (*BadgerProgress, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for import progress: %w", err)
	}
	return &BadgerProgress{db: db, owned: true}, nil
}

// Close closes the BadgerDB if OpenBadgerProgress opened it.
func (p *BadgerProgress) Close() error {
	if !p.owned {
		return nil
	}
	return p.db.Close()
}

// Save persists the current import progress to BadgerDB.
func (p *BadgerProgress) Save(ctx context.Context, stats *ImportStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	return p.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(progressKey), data)
	})
}

// Load retrieves the last saved import progress.
// Returns nil, nil if no progress has been saved.
func (p *BadgerProgress) Load(ctx context.Context) (*ImportStats, error) {
	var (
		stats ImportStats
		found bool
	)

	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(progressKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stats)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &stats, nil
}

// Clear removes saved progress.
func (p *BadgerProgress) Clear(ctx context.Context) error {
	return p.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(progressKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// InMemoryProgress implements ProgressTracker without persistence.
type InMemoryProgress struct {
	mu    sync.Mutex
	stats *ImportStats
}

// NewInMemoryProgress creates a new in-memory progress tracker.
func NewInMemoryProgress() *InMemoryProgress {
	return &InMemoryProgress{}
}

// Save stores a copy of stats.
func (p *InMemoryProgress) Save(_ context.Context, stats *ImportStats) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	statsCopy := *stats
	p.stats = &statsCopy
	return nil
}

// Load returns a copy of the stored progress.
func (p *InMemoryProgress) Load(_ context.Context) (*ImportStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stats == nil {
		return nil, nil
	}
	statsCopy := *p.stats
	return &statsCopy, nil
}

// Clear removes the stored progress.
func (p *InMemoryProgress) Clear(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = nil
	return nil
}
