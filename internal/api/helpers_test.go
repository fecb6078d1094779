// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/e6tracker/internal/config"
	"github.com/tomtom215/e6tracker/internal/database"
	"github.com/tomtom215/e6tracker/internal/importer"
	"github.com/tomtom215/e6tracker/internal/models"
	"github.com/tomtom215/e6tracker/internal/remote"
	"github.com/tomtom215/e6tracker/internal/syncer"
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

func checkStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}

func checkErrorCode(t *testing.T, rec *httptest.ResponseRecorder, want string) *models.APIError {
	t.Helper()
	env := decodeEnvelope[json.RawMessage](t, rec)
	if env.Status != "error" || env.Error == nil {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
	if env.Error.Code != want {
		t.Errorf("error code = %q, want %q", env.Error.Code, want)
	}
	return env.Error
}

type envelope[T any] struct {
	Status string           `json:"status"`
	Data   T                `json:"data"`
	Error  *models.APIError `json:"error"`
}

func decodeEnvelope[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v; body: %s", err, rec.Body.String())
	}
	return env
}

const listingPost = `{
	"id": %d, "created_at": "2024-03-01T10:00:00.000-05:00",
	"file": {"ext": "png", "size": 1, "md5": "m", "url": "https://static.example/f/%d.png"},
	"preview": {"url": null},
	"score": {"up": 1, "down": 0, "total": 1},
	"tags": {"general": ["fox", "solo"], "species": ["canine"]},
	"change_seq": 1, "flags": {"pending": false, "deleted": false},
	"rating": "s", "fav_count": 1, "relationships": {"parent_id": null},
	"approver_id": null, "uploader_id": 3, "description": "", "comment_count": 0,
	"is_favorited": false
}`

func rawPost(id int64) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(listingPost, id, id))
}

type voteCall struct {
	PostID   int64
	Score    int
	NoUnvote bool
}

// fakeRemote serves a fixed listing and records every write.
type fakeRemote struct {
	mu       sync.Mutex
	posts    []json.RawMessage
	lists    []remote.ListOptions
	votes    []voteCall
	adds     []int64
	removes  []int64
	comments json.RawMessage
	threads  int
	breaker  string
	err      error
}

func (f *fakeRemote) ListPosts(_ context.Context, opts remote.ListOptions) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, opts)
	if f.err != nil {
		return nil, f.err
	}
	return f.posts, nil
}

func (f *fakeRemote) AddFavorite(_ context.Context, postID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.adds = append(f.adds, postID)
	return nil
}

func (f *fakeRemote) RemoveFavorite(_ context.Context, postID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.removes = append(f.removes, postID)
	return nil
}

func (f *fakeRemote) Vote(_ context.Context, postID int64, score int, noUnvote bool) (remote.VoteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return remote.VoteResult{}, f.err
	}
	f.votes = append(f.votes, voteCall{PostID: postID, Score: score, NoUnvote: noUnvote})
	our := score
	if !noUnvote {
		our = 0
	}
	return remote.VoteResult{Score: our, OurScore: our}, nil
}

func (f *fakeRemote) ListComments(_ context.Context, _ int64) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threads++
	if f.err != nil {
		return nil, f.err
	}
	return f.comments, nil
}

func (f *fakeRemote) BreakerState() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.breaker == "" {
		return "closed"
	}
	return f.breaker
}

func (f *fakeRemote) voteCalls() []voteCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]voteCall(nil), f.votes...)
}

// fakeSync returns a canned result.
type fakeSync struct {
	result *syncer.Result
	err    error
	status syncer.Status
}

func (f *fakeSync) TriggerSync(context.Context) (*syncer.Result, error) { return f.result, f.err }
func (f *fakeSync) Status() syncer.Status                              { return f.status }

// fakeImports tracks Start and Stop calls.
type fakeImports struct {
	mu      sync.Mutex
	running bool
	started int
}

func (f *fakeImports) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return importer.ErrImportRunning
	}
	f.running = true
	f.started++
	return nil
}

func (f *fakeImports) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return importer.ErrNoImportRunning
	}
	f.running = false
	return nil
}

func (f *fakeImports) GetStats() *importer.ImportStats {
	return &importer.ImportStats{Path: "/exports/posts.csv", TotalRecords: 10, Processed: 4, StartTime: time.Now()}
}

func (f *fakeImports) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

type testEnv struct {
	cfg      *config.Config
	db       *database.DB
	remote   *fakeRemote
	ingester *tracker.Ingester
	sync     *fakeSync
	imports  *fakeImports
	handler  http.Handler
}

// newTestEnv builds the full router over an in-memory store. mutate may
// adjust the configuration before anything is wired.
func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{RateLimitDisabled: true},
		Sync:   config.SyncConfig{Observe: config.ObserveAlways},
	}
	if mutate != nil {
		mutate(cfg)
	}

	env := &testEnv{
		cfg:     cfg,
		db:      setupTestDB(t),
		remote:  &fakeRemote{posts: []json.RawMessage{rawPost(10), rawPost(11)}},
		sync:    &fakeSync{},
		imports: &fakeImports{},
	}
	env.ingester = tracker.NewIngester(
		tracker.NewTxRunner(env.db),
		tracker.NewTagRegistry(),
		tracker.NewReconciler(cfg.Features.TagCooccurrence),
		tracker.NewStatsTracker(),
		tracker.IngestOptions{Observe: cfg.Sync.Observe},
	)

	h := NewHandler(cfg, env.db, env.remote, env.ingester, env.sync, env.imports)
	env.handler = NewRouter(h, &cfg.Server).SetupChi()
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// listing fetches /posts and returns the decoded posts.
func (e *testEnv) listing(t *testing.T) []map[string]interface{} {
	t.Helper()
	rec := e.do(t, http.MethodGet, "/api/v1/posts", "")
	checkStatus(t, rec, http.StatusOK)

	var out struct {
		Posts []map[string]interface{} `json:"posts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	return out.Posts
}
