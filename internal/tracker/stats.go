// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/e6tracker/internal/database"
	"github.com/tomtom215/e6tracker/internal/logging"
	"github.com/tomtom215/e6tracker/internal/models"
)

// ErrStatsNotFound is returned by direct user actions on a post that was
// never seen.
var ErrStatsNotFound = errors.New("post has not been seen")

// Observation is the stats state of a post at the time it was fetched.
// Seen is false for a post observed for the first time.
type Observation struct {
	Seen  bool
	Stats models.Stats
}

// StatsTracker maintains the local favorited/vote/hidden state.
type StatsTracker struct {
	now func() time.Time
}

// NewStatsTracker creates a tracker using the wall clock.
func NewStatsTracker() *StatsTracker {
	return &StatsTracker{now: time.Now}
}

// Observe records one sighting of a post. A first sighting creates the
// row with vote 0 and hidden false. Later sightings only refresh the
// favorited flag, and only when it changed.
func (t *StatsTracker) Observe(ctx context.Context, store StatsStore, postID int64, favorited bool) (Observation, error) {
	st, err := store.GetStats(ctx, postID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		now := t.now().UTC()
		st = models.Stats{
			PostID:      postID,
			Favorited:   favorited,
			FirstSeenAt: now,
			UpdatedAt:   now,
		}
		if err := store.InsertStats(ctx, st); err != nil {
			return Observation{}, err
		}
		return Observation{Seen: false, Stats: st}, nil
	case err != nil:
		return Observation{}, err
	}

	if st.Favorited != favorited {
		if err := store.UpdateFavorited(ctx, postID, favorited); err != nil {
			return Observation{}, err
		}
		st.Favorited = favorited
	}
	return Observation{Seen: true, Stats: st}, nil
}

// Peek reports the stats state without recording a sighting.
func (t *StatsTracker) Peek(ctx context.Context, store StatsStore, postID int64) (Observation, error) {
	st, err := store.GetStats(ctx, postID)
	if errors.Is(err, database.ErrNotFound) {
		return Observation{Seen: false, Stats: models.Stats{PostID: postID}}, nil
	}
	if err != nil {
		return Observation{}, err
	}
	return Observation{Seen: true, Stats: st}, nil
}

// Get returns the stats row or ErrStatsNotFound.
func (t *StatsTracker) Get(ctx context.Context, store StatsStore, postID int64) (models.Stats, error) {
	st, err := store.GetStats(ctx, postID)
	if errors.Is(err, database.ErrNotFound) {
		return models.Stats{}, fmt.Errorf("post %d: %w", postID, ErrStatsNotFound)
	}
	return st, err
}

// SetVote stores the user's vote (-1, 0 or 1) on a seen post.
func (t *StatsTracker) SetVote(ctx context.Context, store StatsStore, postID int64, vote int) (models.Stats, error) {
	if err := models.ValidateVote(vote); err != nil {
		return models.Stats{}, err
	}
	st, err := t.Get(ctx, store, postID)
	if err != nil {
		return models.Stats{}, err
	}
	if err := store.SetVote(ctx, postID, vote); err != nil {
		return models.Stats{}, err
	}
	st.Vote = vote
	st.UpdatedAt = t.now().UTC()
	logging.Ctx(ctx).Info().Int64("post_id", postID).Int("vote", vote).Msg("Vote recorded")
	return st, nil
}

// SetFavorite stores a favorite change made by the user on a seen post.
func (t *StatsTracker) SetFavorite(ctx context.Context, store StatsStore, postID int64, favorited bool) (models.Stats, error) {
	st, err := t.Get(ctx, store, postID)
	if err != nil {
		return models.Stats{}, err
	}
	if err := store.SetFavorite(ctx, postID, favorited); err != nil {
		return models.Stats{}, err
	}
	st.Favorited = favorited
	st.UpdatedAt = t.now().UTC()
	logging.Ctx(ctx).Info().Int64("post_id", postID).Bool("favorited", favorited).Msg("Favorite recorded")
	return st, nil
}

// SetHidden stores the hidden flag of a seen post.
func (t *StatsTracker) SetHidden(ctx context.Context, store StatsStore, postID int64, hidden bool) (models.Stats, error) {
	st, err := t.Get(ctx, store, postID)
	if err != nil {
		return models.Stats{}, err
	}
	if err := store.SetHidden(ctx, postID, hidden); err != nil {
		return models.Stats{}, err
	}
	st.Hidden = hidden
	st.UpdatedAt = t.now().UTC()
	return st, nil
}
