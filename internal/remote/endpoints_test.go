// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// lastRequest holds the method and request URI of the latest request.
type lastRequest struct {
	mu          sync.Mutex
	method, uri string
}

func (l *lastRequest) get() (string, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.method, l.uri
}

// recordingServer answers every request with status and body.
func recordingServer(t *testing.T, status int, body string) (*httptest.Server, *lastRequest) {
	t.Helper()
	last := &lastRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last.mu.Lock()
		last.method, last.uri = r.Method, r.URL.RequestURI()
		last.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, last
}

func TestListPosts(t *testing.T) {
	t.Parallel()

	srv, last := recordingServer(t, http.StatusOK, `{"posts":[{"id":1},{"id":2}]}`)
	c := NewClient(testConfig(srv.URL, 0))

	posts, err := c.ListPosts(context.Background(), ListOptions{Tags: "fav:alice", Limit: 2})
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(posts) != 2 || string(posts[1]) != `{"id":2}` {
		t.Errorf("posts = %s", posts)
	}
	if _, uri := last.get(); uri != "/posts.json?tags=fav%3Aalice&limit=2" {
		t.Errorf("request = %s", uri)
	}
}

func TestListPostsEmptyAndError(t *testing.T) {
	t.Parallel()

	srv, _ := recordingServer(t, http.StatusOK, `{"posts":[]}`)
	posts, err := NewClient(testConfig(srv.URL, 0)).ListPosts(context.Background(), ListOptions{})
	if err != nil || len(posts) != 0 {
		t.Errorf("ListPosts() = %v, %v", posts, err)
	}

	srv, _ = recordingServer(t, http.StatusForbidden, `{"success":false}`)
	_, err = NewClient(testConfig(srv.URL, 0)).ListPosts(context.Background(), ListOptions{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("error = %v, want *APIError 403", err)
	}
}

func TestFavorites(t *testing.T) {
	t.Parallel()

	srv, last := recordingServer(t, http.StatusCreated, `{}`)
	c := NewClient(testConfig(srv.URL, 0))

	if err := c.AddFavorite(context.Background(), 42); err != nil {
		t.Fatalf("AddFavorite() error = %v", err)
	}
	if m, uri := last.get(); m != http.MethodPost || uri != "/favorites.json?post_id=42" {
		t.Errorf("AddFavorite request = %s %s", m, uri)
	}

	if err := c.RemoveFavorite(context.Background(), 42); err != nil {
		t.Fatalf("RemoveFavorite() error = %v", err)
	}
	if m, uri := last.get(); m != http.MethodDelete || uri != "/favorites/42.json" {
		t.Errorf("RemoveFavorite request = %s %s", m, uri)
	}
}

func TestVote(t *testing.T) {
	t.Parallel()

	srv, last := recordingServer(t, http.StatusOK, `{"score":5,"up":6,"down":-1,"our_score":1}`)
	c := NewClient(testConfig(srv.URL, 0))

	res, err := c.Vote(context.Background(), 9, 1, true)
	if err != nil {
		t.Fatalf("Vote() error = %v", err)
	}
	if res.OurScore != 1 || res.Score != 5 {
		t.Errorf("VoteResult = %+v", res)
	}
	if _, uri := last.get(); uri != "/posts/9/votes.json?score=1&no_unvote=true" {
		t.Errorf("request = %s", uri)
	}

	if _, err := c.Vote(context.Background(), 9, 0, false); err == nil {
		t.Error("score 0 should be rejected locally")
	}
}

func TestListComments(t *testing.T) {
	t.Parallel()

	srv, last := recordingServer(t, http.StatusOK, `[{"id":1,"body":"nice"}]`)
	c := NewClient(testConfig(srv.URL, 0))

	raw, err := c.ListComments(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListComments() error = %v", err)
	}
	if string(raw) != `[{"id":1,"body":"nice"}]` {
		t.Errorf("body = %s", raw)
	}
	if _, uri := last.get(); uri != "/comments.json?group_by=comment&search%5Bpost_id%5D=7" {
		t.Errorf("request = %s", uri)
	}
}
