// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/e6tracker/internal/logging"
	"github.com/tomtom215/e6tracker/internal/remote"
)

// listingResponse keeps the board's own listing shape.
type listingResponse struct {
	Posts []json.RawMessage `json:"posts"`
}

// Posts handles GET /api/v1/posts. The page is fetched from the board,
// applied to the mirror and returned with local state added to every
// post seen before.
func (h *Handler) Posts(w http.ResponseWriter, r *http.Request) {
	page, ok := intQuery(w, r, "page", 0)
	if !ok {
		return
	}
	limit, ok := intQuery(w, r, "limit", 0)
	if !ok {
		return
	}
	req := ListingRequest{
		Tags:  r.URL.Query().Get("tags"),
		Page:  page,
		Limit: limit,
	}
	if !validateRequest(w, &req) {
		return
	}

	ctx := r.Context()
	raws, err := h.remote.ListPosts(ctx, remote.ListOptions{Page: req.Page, Tags: req.Tags, Limit: req.Limit})
	if err != nil {
		respondErr(w, r, err)
		return
	}

	result, err := h.ingester.IngestPage(ctx, raws)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if result.Failed > 0 {
		logging.Ctx(ctx).Warn().
			Int("failed", result.Failed).
			Int("succeeded", result.Succeeded).
			Msg("Listing page partially applied")
	}

	annotated, err := result.Annotated()
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, listingResponse{Posts: annotated})
}

// Comments handles GET /api/v1/posts/{id}/comments, passing the board's
// answer through.
func (h *Handler) Comments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if raw, ok := h.comments.Get(id); ok {
		w.Header().Set("X-Cache", "HIT")
		respondRaw(w, http.StatusOK, raw)
		return
	}

	raw, err := h.remote.ListComments(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	h.comments.Add(id, raw)
	w.Header().Set("X-Cache", "MISS")
	respondRaw(w, http.StatusOK, raw)
}
