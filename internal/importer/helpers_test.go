// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/e6tracker/internal/config"
	"github.com/tomtom215/e6tracker/internal/database"
	"github.com/tomtom215/e6tracker/internal/tracker"
)

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

func newTestIngester(db *database.DB, chunkSize int) *tracker.Ingester {
	return tracker.NewIngester(
		tracker.NewTxRunner(db),
		tracker.NewTagRegistry(),
		tracker.NewReconciler(false),
		tracker.NewStatsTracker(),
		tracker.IngestOptions{ChunkSize: chunkSize},
	)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func checkInt64Equal(t *testing.T, fieldName string, got, want int64) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %d, got %d", fieldName, want, got)
	}
}

const postsCSV = `id,uploader_id,approver_id,created_at,rating,description,file_ext,file_size,parent_id,change_seq,is_deleted,is_pending,comment_count,fav_count,score,up_score,down_score,md5,tag_string
1,10,,2007-02-10 04:53:12.802804,s,first,png,100,,5,f,f,0,3,2,3,-1,abcdef0123,fox canine
2,10,11,2007-02-11 04:53:12,q,"has, comma",jpg,200,1,6,t,false,1,4,5,6,-1,0123abcd,fox unknown_tag
3,10,,not-a-date,s,,png,1,,1,f,f,0,0,0,0,0,,
`

const tagsCSV = `id,name,category,post_count
1,fox,0,10
2,canine,5,10
3,some_copyright,3,1
`

// exportFixture writes the posts and tags exports and returns their paths.
func exportFixture(t *testing.T) (posts, tags string) {
	t.Helper()
	dir := t.TempDir()
	return writeFile(t, dir, "posts.csv", postsCSV), writeFile(t, dir, "tags.csv", tagsCSV)
}
