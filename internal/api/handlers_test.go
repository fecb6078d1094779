// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/e6tracker/internal/config"
	"github.com/tomtom215/e6tracker/internal/models"
	"github.com/tomtom215/e6tracker/internal/remote"
	"github.com/tomtom215/e6tracker/internal/syncer"
)

func TestPostsListingAnnotatesSeenPosts(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	first := env.listing(t)
	if len(first) != 2 {
		t.Fatalf("posts = %d, want 2", len(first))
	}
	for _, p := range first {
		if _, ok := p["score"].(map[string]interface{})["my_vote"]; ok {
			t.Errorf("first sighting of %v should carry no my_vote", p["id"])
		}
	}

	checkStatus(t, env.do(t, http.MethodPost, "/api/v1/posts/10/vote", `{"vote":1}`), http.StatusOK)

	second := env.listing(t)
	byID := map[float64]map[string]interface{}{}
	for _, p := range second {
		byID[p["id"].(float64)] = p
	}
	if got := byID[10]["score"].(map[string]interface{})["my_vote"]; got != float64(1) {
		t.Errorf("post 10 my_vote = %v, want 1", got)
	}
	if got := byID[11]["score"].(map[string]interface{})["my_vote"]; got != float64(0) {
		t.Errorf("post 11 my_vote = %v, want 0", got)
	}
	if got := byID[10]["is_hidden"]; got != false {
		t.Errorf("post 10 is_hidden = %v, want false", got)
	}

	sum, err := env.db.Store().Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if sum.Posts != 2 || sum.Seen != 2 || sum.Tags != 3 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestPostsListingKeepsMalformedPosts(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.remote.posts = []json.RawMessage{rawPost(10), json.RawMessage(`{"id": 12, "rating": "s"}`)}

	posts := env.listing(t)
	if len(posts) != 2 {
		t.Fatalf("posts = %d, want the malformed one passed through", len(posts))
	}
	if posts[1]["id"] != float64(12) {
		t.Errorf("second post = %v", posts[1])
	}
}

func TestPostsListingForwardsQuery(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	checkStatus(t, env.do(t, http.MethodGet, "/api/v1/posts?tags=fox+solo&page=2&limit=5", ""), http.StatusOK)
	got := env.remote.lists[0]
	if got.Tags != "fox solo" || got.Page != 2 || got.Limit != 5 {
		t.Errorf("ListOptions = %+v", got)
	}

	checkStatus(t, env.do(t, http.MethodGet, "/api/v1/posts?limit=1000", ""), http.StatusBadRequest)
	checkStatus(t, env.do(t, http.MethodGet, "/api/v1/posts?page=x", ""), http.StatusBadRequest)
}

func TestVoteClearUsesStoredDirection(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.listing(t)

	checkStatus(t, env.do(t, http.MethodPost, "/api/v1/posts/10/vote", `{"vote":-1}`), http.StatusOK)
	rec := env.do(t, http.MethodPost, "/api/v1/posts/10/vote", `{"vote":0}`)
	checkStatus(t, rec, http.StatusOK)

	env2 := decodeEnvelope[VoteResponse](t, rec)
	if env2.Data.Stats.Vote != 0 {
		t.Errorf("stored vote = %d, want 0", env2.Data.Stats.Vote)
	}

	want := []voteCall{{10, -1, true}, {10, -1, false}}
	got := env.remote.voteCalls()
	if len(got) != len(want) {
		t.Fatalf("vote calls = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("vote call %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	// Clearing an unvoted post never reaches the board.
	checkStatus(t, env.do(t, http.MethodPost, "/api/v1/posts/11/vote", `{"vote":0}`), http.StatusOK)
	if n := len(env.remote.voteCalls()); n != 2 {
		t.Errorf("vote calls = %d after local-only clear, want 2", n)
	}
}

func TestActionsOnUnseenPost(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/api/v1/posts/999/vote", `{"vote":1}`},
		{http.MethodPost, "/api/v1/posts/999/favorite", ""},
		{http.MethodDelete, "/api/v1/posts/999/favorite", ""},
		{http.MethodPost, "/api/v1/posts/999/hide", `{"hidden":true}`},
	} {
		rec := env.do(t, tc.method, tc.path, tc.body)
		checkStatus(t, rec, http.StatusNotFound)
		checkErrorCode(t, rec, ErrCodeNotFound)
	}
	if len(env.remote.voteCalls()) != 0 || len(env.remote.adds) != 0 || len(env.remote.removes) != 0 {
		t.Error("remote must not be called for an unseen post")
	}
}

func TestVoteRequestValidation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.listing(t)

	tests := []struct {
		name string
		path string
		body string
		code string
	}{
		{"out of range", "/api/v1/posts/10/vote", `{"vote":2}`, "VALIDATION_ERROR"},
		{"missing vote", "/api/v1/posts/10/vote", `{}`, "VALIDATION_ERROR"},
		{"unknown field", "/api/v1/posts/10/vote", `{"vote":1,"force":true}`, ErrCodeBadRequest},
		{"not json", "/api/v1/posts/10/vote", `vote=1`, ErrCodeBadRequest},
		{"bad id", "/api/v1/posts/abc/vote", `{"vote":1}`, ErrCodeBadRequest},
		{"zero id", "/api/v1/posts/0/vote", `{"vote":1}`, ErrCodeBadRequest},
	}
	for _, tt := range tests {
		rec := env.do(t, http.MethodPost, tt.path, tt.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tt.name, rec.Code)
			continue
		}
		checkErrorCode(t, rec, tt.code)
	}
	if len(env.remote.voteCalls()) != 0 {
		t.Error("rejected requests must not reach the board")
	}
}

func TestRemoteErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		upstream float64
	}{
		{"upstream 403", &remote.APIError{Method: "POST", StatusCode: 403, Body: "denied"}, http.StatusBadGateway, ErrCodeUpstreamFailed, 403},
		{"breaker open", fmt.Errorf("%w: open", remote.ErrCircuitOpen), http.StatusServiceUnavailable, ErrCodeServiceUnavailable, 0},
		{"transport", errors.New("dial tcp: refused"), http.StatusInternalServerError, ErrCodeInternalError, 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, nil)
			env.listing(t)
			env.remote.err = tt.err

			rec := env.do(t, http.MethodPost, "/api/v1/posts/10/favorite", "")
			checkStatus(t, rec, tt.status)
			apiErr := checkErrorCode(t, rec, tt.code)
			if tt.upstream != 0 && apiErr.Details["upstream_status"] != tt.upstream {
				t.Errorf("upstream_status = %v, want %v", apiErr.Details["upstream_status"], tt.upstream)
			}
			if strings.Contains(rec.Body.String(), "denied") {
				t.Error("upstream body must not leak to the client")
			}

			st, err := env.db.Store().GetStats(context.Background(), 10)
			if err != nil {
				t.Fatalf("GetStats() error = %v", err)
			}
			if st.Favorited {
				t.Error("failed remote favorite must not be stored")
			}
		})
	}
}

func TestFavoriteAndHide(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.listing(t)

	rec := env.do(t, http.MethodPost, "/api/v1/posts/11/favorite", "")
	checkStatus(t, rec, http.StatusOK)
	if st := decodeEnvelope[models.Stats](t, rec).Data; !st.Favorited {
		t.Errorf("stats after favorite = %+v", st)
	}

	checkStatus(t, env.do(t, http.MethodPost, "/api/v1/posts/10/hide", `{"hidden":true}`), http.StatusOK)

	rec = env.do(t, http.MethodGet, "/api/v1/local/posts?hidden=true", "")
	checkStatus(t, rec, http.StatusOK)
	page := decodeEnvelope[LocalPostsResponse](t, rec).Data
	if page.Count != 1 || page.Posts[0].ID != 10 || !page.Stats[10].Hidden {
		t.Errorf("hidden posts = %+v", page)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/local/posts?favorited=true", "")
	page = decodeEnvelope[LocalPostsResponse](t, rec).Data
	if page.Count != 1 || page.Posts[0].ID != 11 {
		t.Errorf("favorited posts = %+v", page)
	}

	checkStatus(t, env.do(t, http.MethodDelete, "/api/v1/posts/11/favorite", ""), http.StatusOK)
	st, err := env.db.Store().GetStats(context.Background(), 11)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if st.Favorited {
		t.Error("favorite not removed")
	}
	if len(env.remote.adds) != 1 || len(env.remote.removes) != 1 {
		t.Errorf("remote adds/removes = %v/%v", env.remote.adds, env.remote.removes)
	}

	checkStatus(t, env.do(t, http.MethodGet, "/api/v1/local/posts?hidden=maybe", ""), http.StatusBadRequest)
	checkStatus(t, env.do(t, http.MethodGet, "/api/v1/local/posts?category=copyright", ""), http.StatusBadRequest)
}

func TestLocalPostsByTag(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.listing(t)

	rec := env.do(t, http.MethodGet, "/api/v1/local/posts?tag=canine&category=SPECIES&limit=1", "")
	checkStatus(t, rec, http.StatusOK)
	page := decodeEnvelope[LocalPostsResponse](t, rec).Data
	if page.Count != 1 || page.Posts[0].ID != 11 {
		t.Errorf("page = %+v, want newest post only", page)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/local/posts?tag=canine&category=general", "")
	if page := decodeEnvelope[LocalPostsResponse](t, rec).Data; page.Count != 0 {
		t.Errorf("canine is not a general tag, got %+v", page)
	}
}

func TestLocalPostDetail(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.listing(t)

	rec := env.do(t, http.MethodGet, "/api/v1/local/posts/10", "")
	checkStatus(t, rec, http.StatusOK)
	detail := decodeEnvelope[models.PostDetail](t, rec).Data
	if detail.Post.ID != 10 || len(detail.Tags) != 3 || detail.Stats == nil {
		t.Errorf("detail = %+v", detail)
	}
	if detail.Post.FileURL != "https://static.example/f/10.png" {
		t.Errorf("FileURL = %q", detail.Post.FileURL)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/local/posts/404", "")
	checkStatus(t, rec, http.StatusNotFound)

	rec = env.do(t, http.MethodGet, "/api/v1/local/summary", "")
	checkStatus(t, rec, http.StatusOK)
	if sum := decodeEnvelope[models.StoreSummary](t, rec).Data; sum.Posts != 2 || sum.PostTags != 6 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestComments(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.remote.comments = json.RawMessage(`[{"id":1,"body":"nice"}]`)

	rec := env.do(t, http.MethodGet, "/api/v1/posts/10/comments", "")
	checkStatus(t, rec, http.StatusOK)
	if rec.Body.String() != `[{"id":1,"body":"nice"}]` {
		t.Errorf("body = %s, want passthrough", rec.Body.String())
	}
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Errorf("X-Cache = %q on first fetch", rec.Header().Get("X-Cache"))
	}

	rec = env.do(t, http.MethodGet, "/api/v1/posts/10/comments", "")
	checkStatus(t, rec, http.StatusOK)
	if rec.Header().Get("X-Cache") != "HIT" || env.remote.threads != 1 {
		t.Errorf("second fetch: X-Cache = %q, remote calls = %d", rec.Header().Get("X-Cache"), env.remote.threads)
	}
}

func TestRelatedTags(t *testing.T) {
	t.Parallel()

	off := newTestEnv(t, nil)
	rec := off.do(t, http.MethodGet, "/api/v1/tags/1/related", "")
	checkStatus(t, rec, http.StatusNotFound)
	checkErrorCode(t, rec, ErrCodeFeatureDisabled)

	on := newTestEnv(t, func(c *config.Config) { c.Features.TagCooccurrence = true })
	on.listing(t)

	foxID, ok := on.ingester.Registry().Lookup(models.TagKey{Name: "fox", Category: models.CategoryGeneral})
	if !ok {
		t.Fatal("fox not registered")
	}
	rec = on.do(t, http.MethodGet, fmt.Sprintf("/api/v1/tags/%d/related", foxID), "")
	checkStatus(t, rec, http.StatusOK)
	related := decodeEnvelope[RelatedTagsResponse](t, rec).Data
	if related.Tag.Name != "fox" || len(related.Related) != 2 {
		t.Fatalf("related = %+v", related)
	}
	for _, r := range related.Related {
		if r.Count != 2 {
			t.Errorf("%s count = %d, want 2", r.Tag.Name, r.Count)
		}
	}

	checkStatus(t, on.do(t, http.MethodGet, "/api/v1/tags/9999/related", ""), http.StatusNotFound)
	checkStatus(t, on.do(t, http.MethodGet, fmt.Sprintf("/api/v1/tags/%d/related?limit=0", foxID), ""), http.StatusBadRequest)
}

func TestSyncEndpoints(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	env.sync.result = &syncer.Result{RunID: "r1", Pages: 2, Posts: 4, Succeeded: 4}
	rec := env.do(t, http.MethodPost, "/api/v1/sync", "")
	checkStatus(t, rec, http.StatusOK)
	if res := decodeEnvelope[syncer.Result](t, rec).Data; res.RunID != "r1" || res.Posts != 4 {
		t.Errorf("result = %+v", res)
	}

	env.sync.result, env.sync.err = nil, syncer.ErrSyncInProgress
	rec = env.do(t, http.MethodPost, "/api/v1/sync", "")
	checkStatus(t, rec, http.StatusConflict)
	checkErrorCode(t, rec, ErrCodeConflict)

	env.sync.result = &syncer.Result{RunID: "r2", Pages: 1}
	env.sync.err = fmt.Errorf("fetch page 2: %w", remote.ErrCircuitOpen)
	rec = env.do(t, http.MethodPost, "/api/v1/sync", "")
	checkStatus(t, rec, http.StatusServiceUnavailable)
	if apiErr := checkErrorCode(t, rec, ErrCodeServiceUnavailable); apiErr.Details["result"] == nil {
		t.Error("partial result missing from details")
	}

	env.sync.status = syncer.Status{Enabled: true, Schedule: "@every 30m"}
	rec = env.do(t, http.MethodGet, "/api/v1/sync/status", "")
	checkStatus(t, rec, http.StatusOK)
	if st := decodeEnvelope[syncer.Status](t, rec).Data; st.Schedule != "@every 30m" {
		t.Errorf("status = %+v", st)
	}
}

func TestWithoutSyncOrImport(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	h := NewHandler(env.cfg, env.db, env.remote, env.ingester, nil, nil)
	handler := NewRouter(h, &env.cfg.Server).SetupChi()
	env.handler = handler

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/sync"},
		{http.MethodGet, "/api/v1/sync/status"},
		{http.MethodPost, "/api/v1/import"},
		{http.MethodGet, "/api/v1/import/status"},
	} {
		checkStatus(t, env.do(t, tc.method, tc.path, ""), http.StatusServiceUnavailable)
	}
}

func TestImportEndpoints(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodDelete, "/api/v1/import", "")
	checkStatus(t, rec, http.StatusConflict)

	rec = env.do(t, http.MethodPost, "/api/v1/import", "")
	checkStatus(t, rec, http.StatusAccepted)
	summary := decodeEnvelope[map[string]interface{}](t, rec).Data
	if summary["status"] != "running" || summary["total_records"] != float64(10) {
		t.Errorf("summary = %v", summary)
	}

	checkStatus(t, env.do(t, http.MethodPost, "/api/v1/import", ""), http.StatusConflict)

	rec = env.do(t, http.MethodGet, "/api/v1/import/status", "")
	checkStatus(t, rec, http.StatusOK)
	if s := decodeEnvelope[map[string]interface{}](t, rec).Data; s["status"] != "running" {
		t.Errorf("status = %v", s["status"])
	}

	checkStatus(t, env.do(t, http.MethodDelete, "/api/v1/import", ""), http.StatusOK)
	if env.imports.started != 1 || env.imports.IsRunning() {
		t.Errorf("imports = %+v", env.imports)
	}
}
