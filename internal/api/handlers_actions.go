// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/e6tracker/internal/models"
	"github.com/tomtom215/e6tracker/internal/remote"
	"github.com/tomtom215/e6tracker/internal/tracker"
)

// VoteResponse reports the stored stats and the board's vote tally.
type VoteResponse struct {
	Stats  models.Stats       `json:"stats"`
	Remote *remote.VoteResult `json:"remote,omitempty"`
}

// Vote handles POST /api/v1/posts/{id}/vote.
//
// The board only knows up and down votes, and voting the same direction
// twice without no_unvote removes the vote. Clearing (0) therefore
// re-sends the stored direction; clearing an unvoted post stays local.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req VoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	vote := *req.Vote

	ctx := r.Context()
	current, err := h.ingester.Stats().Get(ctx, h.db.Store(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	var tally *remote.VoteResult
	switch {
	case vote != 0:
		res, err := h.remote.Vote(ctx, id, vote, true)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		tally = &res
	case current.Vote != 0:
		res, err := h.remote.Vote(ctx, id, current.Vote, false)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		tally = &res
	}

	st, err := h.updateStats(ctx, func(ctx context.Context, s tracker.Store) (models.Stats, error) {
		return h.ingester.Stats().SetVote(ctx, s, id, vote)
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, VoteResponse{Stats: st, Remote: tally}, start)
}

// Favorite handles POST /api/v1/posts/{id}/favorite.
func (h *Handler) Favorite(w http.ResponseWriter, r *http.Request) {
	h.setFavorite(w, r, true)
}

// Unfavorite handles DELETE /api/v1/posts/{id}/favorite.
func (h *Handler) Unfavorite(w http.ResponseWriter, r *http.Request) {
	h.setFavorite(w, r, false)
}

func (h *Handler) setFavorite(w http.ResponseWriter, r *http.Request, favorited bool) {
	start := time.Now()
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if _, err := h.ingester.Stats().Get(ctx, h.db.Store(), id); err != nil {
		respondErr(w, r, err)
		return
	}

	var err error
	if favorited {
		err = h.remote.AddFavorite(ctx, id)
	} else {
		err = h.remote.RemoveFavorite(ctx, id)
	}
	if err != nil {
		respondErr(w, r, err)
		return
	}

	st, err := h.updateStats(ctx, func(ctx context.Context, s tracker.Store) (models.Stats, error) {
		return h.ingester.Stats().SetFavorite(ctx, s, id, favorited)
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, st, start)
}

// Hide handles POST /api/v1/posts/{id}/hide. Hidden is local only.
func (h *Handler) Hide(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req HideRequest
	if !decodeBody(w, r, &req) {
		return
	}

	st, err := h.updateStats(r.Context(), func(ctx context.Context, s tracker.Store) (models.Stats, error) {
		return h.ingester.Stats().SetHidden(ctx, s, id, *req.Hidden)
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, st, start)
}

// updateStats runs a stats write under the ingester's writer lock so it
// never interleaves with a chunk being applied.
func (h *Handler) updateStats(ctx context.Context, fn func(context.Context, tracker.Store) (models.Stats, error)) (models.Stats, error) {
	var st models.Stats
	err := h.ingester.Exclusive(ctx, func(s tracker.Store) error {
		var err error
		st, err = fn(ctx, s)
		return err
	})
	return st, err
}
