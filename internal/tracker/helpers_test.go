// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/e6tracker/internal/config"
	"github.com/tomtom215/e6tracker/internal/database"
	"github.com/tomtom215/e6tracker/internal/models"
)

// testDBSemaphore keeps one in-memory DuckDB alive at a time.
var testDBSemaphore = make(chan struct{}, 1)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB"})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// checkNoError fails the test if err is not nil
func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// checkIntEqual checks that got equals want
func checkIntEqual(t *testing.T, fieldName string, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %d, got %d", fieldName, want, got)
	}
}

func boolPtr(v bool) *bool { return &v }

func key(name string, c models.TagCategory) models.TagKey {
	return models.TagKey{Name: name, Category: c}
}

// record builds a valid record with the given version and tags.
func record(id, changeSeq int64, tags ...models.TagKey) models.PostRecord {
	return models.PostRecord{
		ID: id,
		PostScalars: models.PostScalars{
			UploaderID:  1,
			CreatedAt:   time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC),
			Rating:      models.RatingSafe,
			Description: fmt.Sprintf("version %d", changeSeq),
			FileExt:     "png",
			ChangeSeq:   changeSeq,
			FavCount:    int(changeSeq),
			ScoreTotal:  int(changeSeq) * 10,
		},
		URLs:      &models.PostURLs{Preview: "preview", File: "file"},
		Tags:      models.NewTagSet(tags...),
		Favorited: boolPtr(false),
	}
}

// countingStore counts association writes and scalar updates.
type countingStore struct {
	Store
	mu            sync.Mutex
	adds, removes int
	scalarUpdates int
	tagInserts    int
}

func (c *countingStore) AddPostTag(ctx context.Context, postID, tagID int64) error {
	c.mu.Lock()
	c.adds++
	c.mu.Unlock()
	return c.Store.AddPostTag(ctx, postID, tagID)
}

func (c *countingStore) RemovePostTag(ctx context.Context, postID, tagID int64) error {
	c.mu.Lock()
	c.removes++
	c.mu.Unlock()
	return c.Store.RemovePostTag(ctx, postID, tagID)
}

func (c *countingStore) UpdatePostScalars(ctx context.Context, id int64, sc models.PostScalars) error {
	c.mu.Lock()
	c.scalarUpdates++
	c.mu.Unlock()
	return c.Store.UpdatePostScalars(ctx, id, sc)
}

func (c *countingStore) InsertTag(ctx context.Context, k models.TagKey) (int64, error) {
	c.mu.Lock()
	c.tagInserts++
	c.mu.Unlock()
	return c.Store.InsertTag(ctx, k)
}

func (c *countingStore) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adds, c.removes, c.scalarUpdates, c.tagInserts = 0, 0, 0, 0
}

var errInjected = errors.New("injected write failure")

// failingStore fails association writes for one post, after the post row
// and any new tag rows have been written in the same transaction.
type failingStore struct {
	Store
	failPost int64
}

func (f failingStore) AddPostTag(ctx context.Context, postID, tagID int64) error {
	if postID == f.failPost {
		return errInjected
	}
	return f.Store.AddPostTag(ctx, postID, tagID)
}

// failingRunner hands out failingStores.
type failingRunner struct {
	inner    TxRunner
	failPost int64
}

func (r failingRunner) WithTx(ctx context.Context, fn func(Store) error) error {
	return r.inner.WithTx(ctx, func(s Store) error {
		return fn(failingStore{Store: s, failPost: r.failPost})
	})
}

// storedTags returns the associated pairs of a post.
func storedTags(t *testing.T, s Store, postID int64) models.TagSet {
	t.Helper()
	keys, err := s.PostTagKeys(context.Background(), postID)
	checkNoError(t, err)
	set := models.NewTagSet()
	for k := range keys {
		set.Add(k)
	}
	return set
}
