// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package models

import (
	"fmt"
	"time"
)

// Stats is the local-only annotation kept for every post the user has
// seen. It is not version-gated: it reflects direct user action and the
// live favorite state observed on each fetch.
type Stats struct {
	PostID      int64     `json:"post_id"`
	Favorited   bool      `json:"favorited"`
	Vote        int       `json:"vote"`
	Hidden      bool      `json:"hidden"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValidateVote accepts -1, 0 and +1.
func ValidateVote(v int) error {
	if v < -1 || v > 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidVote, v)
	}
	return nil
}
