// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/e6tracker/internal/database"
	"github.com/tomtom215/e6tracker/internal/models"
)

const defaultRelatedLimit = 25

// LocalPostsResponse is one page of mirrored posts with their stats.
type LocalPostsResponse struct {
	Posts []models.Post          `json:"posts"`
	Stats map[int64]models.Stats `json:"stats"`
	Count int                    `json:"count"`
}

// RelatedTagsResponse lists the tags seen most often together with Tag.
type RelatedTagsResponse struct {
	Tag     models.Tag          `json:"tag"`
	Related []models.RelatedTag `json:"related"`
}

// LocalPosts handles GET /api/v1/local/posts.
func (h *Handler) LocalPosts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	limit, ok := intQuery(w, r, "limit", database.DefaultListLimit)
	if !ok {
		return
	}
	offset, ok := intQuery(w, r, "offset", 0)
	if !ok {
		return
	}
	favorited, ok := boolQuery(w, r, "favorited")
	if !ok {
		return
	}
	hidden, ok := boolQuery(w, r, "hidden")
	if !ok {
		return
	}

	req := LocalPostsRequest{
		Tag:      r.URL.Query().Get("tag"),
		Category: r.URL.Query().Get("category"),
		Limit:    limit,
		Offset:   offset,
	}
	if !validateRequest(w, &req) {
		return
	}

	ctx := r.Context()
	store := h.db.Store()
	posts, err := store.ListPosts(ctx, database.PostFilter{
		Tag:       req.Tag,
		Category:  models.TagCategory(strings.ToLower(req.Category)),
		Favorited: favorited,
		Hidden:    hidden,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}

	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	stats, err := store.StatsForPosts(ctx, ids)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondData(w, http.StatusOK, LocalPostsResponse{Posts: posts, Stats: stats, Count: len(posts)}, start)
}

// LocalPost handles GET /api/v1/local/posts/{id}.
func (h *Handler) LocalPost(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	store := h.db.Store()
	post, err := store.GetPost(ctx, id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	tags, err := store.PostTags(ctx, id)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	detail := models.PostDetail{Post: post, Tags: tags}
	st, err := store.GetStats(ctx, id)
	switch {
	case err == nil:
		detail.Stats = &st
	case !errors.Is(err, database.ErrNotFound):
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, detail, start)
}

// Summary handles GET /api/v1/local/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sum, err := h.db.Store().Summary(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, sum, start)
}

// RelatedTags handles GET /api/v1/tags/{id}/related. It answers 404 when
// co-occurrence tracking is turned off.
func (h *Handler) RelatedTags(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !h.cfg.Features.TagCooccurrence {
		respondError(w, r, http.StatusNotFound, ErrCodeFeatureDisabled,
			"Tag co-occurrence tracking is disabled", nil, nil)
		return
	}

	id, ok := idParam(w, r)
	if !ok {
		return
	}
	limit, ok := intQuery(w, r, "limit", defaultRelatedLimit)
	if !ok {
		return
	}
	req := RelatedTagsRequest{Limit: limit}
	if !validateRequest(w, &req) {
		return
	}

	ctx := r.Context()
	store := h.db.Store()
	tag, err := store.GetTag(ctx, id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	related, err := store.RelatedTags(ctx, id, req.Limit)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, RelatedTagsResponse{Tag: tag, Related: related}, start)
}
