// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package models

import (
	"strings"
	"time"
)

// Ratings used by the board.
const (
	RatingSafe         = "s"
	RatingQuestionable = "q"
	RatingExplicit     = "e"
)

// ValidRating reports whether r is s, q or e.
func ValidRating(r string) bool {
	return r == RatingSafe || r == RatingQuestionable || r == RatingExplicit
}

// PostScalars are the version-gated fields of a post. They are replaced
// as a unit when an incoming record carries a higher ChangeSeq.
type PostScalars struct {
	UploaderID   int64     `json:"uploader_id"`
	ApproverID   *int64    `json:"approver_id"`
	CreatedAt    time.Time `json:"created_at"`
	Rating       string    `json:"rating"`
	Description  string    `json:"description"`
	FileExt      string    `json:"file_ext"`
	FileSize     int64     `json:"file_size"`
	ParentID     *int64    `json:"parent_id"`
	ChangeSeq    int64     `json:"change_seq"`
	IsDeleted    bool      `json:"is_deleted"`
	IsPending    bool      `json:"is_pending"`
	CommentCount int       `json:"comment_count"`
	FavCount     int       `json:"fav_count"`
	ScoreTotal   int       `json:"score_total"`
	ScoreUp      int       `json:"score_up"`
	ScoreDown    int       `json:"score_down"`
}

// Post is the local mirror of one board post.
type Post struct {
	ID int64 `json:"id"`
	PostScalars

	// URLs are refreshed on every sighting regardless of ChangeSeq.
	PreviewURL string `json:"preview_url"`
	FileURL    string `json:"file_url"`

	FirstSeenAt time.Time `json:"first_seen_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PostURLs are the file-serving URLs carried by a record.
type PostURLs struct {
	Preview string
	File    string
}

// PostRecord is one externally sourced post, validated and normalized.
type PostRecord struct {
	ID int64
	PostScalars

	// URLs is nil when the source carries no URL information.
	URLs *PostURLs

	// Tags is nil when the source carries no tag information.
	Tags TagSet

	// Favorited is nil when the source does not report favorite state.
	Favorited *bool
}

// Validate checks the invariants every record must satisfy before it may
// touch the store.
func (r *PostRecord) Validate() error {
	if r.ID <= 0 {
		return malformed("post id must be positive, got %d", r.ID)
	}
	if !ValidRating(r.Rating) {
		return malformed("post %d: rating %q is not one of s, q, e", r.ID, r.Rating)
	}
	if r.CreatedAt.IsZero() {
		return malformed("post %d: created_at is missing", r.ID)
	}
	if r.ChangeSeq < 0 {
		return malformed("post %d: negative change_seq %d", r.ID, r.ChangeSeq)
	}
	if r.ParentID != nil && *r.ParentID == r.ID {
		return malformed("post %d: parent_id refers to itself", r.ID)
	}
	for k := range r.Tags {
		if !k.Category.Valid() {
			return malformed("post %d: %v %q", r.ID, ErrInvalidCategory, k.Category)
		}
		if strings.TrimSpace(k.Name) == "" {
			return malformed("post %d: empty tag name in %s", r.ID, k.Category)
		}
	}
	return nil
}

// NewPost builds a post from the record verbatim.
func (r *PostRecord) NewPost() Post {
	p := Post{ID: r.ID, PostScalars: r.PostScalars}
	if r.URLs != nil {
		p.PreviewURL = r.URLs.Preview
		p.FileURL = r.URLs.File
	}
	return p
}

// exportTimestampLayout is the space-separated form used by bulk exports.
const exportTimestampLayout = "2006-01-02 15:04:05.999999999"

// ParseTimestamp parses an RFC 3339 timestamp (as served by the API) or the
// export form "2006-01-02 15:04:05.999999" (read as UTC) and normalizes the
// result to UTC. It never falls back to a default value.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &TimestampError{Value: s, Err: errEmptyTimestamp}
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t.UTC(), nil
	}
	if t2, err2 := time.ParseInLocation(exportTimestampLayout, s, time.UTC); err2 == nil {
		return t2.UTC(), nil
	}
	return time.Time{}, &TimestampError{Value: s, Err: err}
}
