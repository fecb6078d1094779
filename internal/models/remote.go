// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package models

import (
	"strings"

	"github.com/goccy/go-json"
)

// RemotePost is one element of the posts.json listing. Nested objects are
// pointers so that a missing object can be told apart from a zero one.
type RemotePost struct {
	ID            int64                `json:"id"`
	CreatedAt     string               `json:"created_at"`
	File          *RemoteFile          `json:"file"`
	Preview       *RemotePreview       `json:"preview"`
	Score         *RemoteScore         `json:"score"`
	Tags          map[string][]string  `json:"tags"`
	ChangeSeq     int64                `json:"change_seq"`
	Flags         *RemoteFlags         `json:"flags"`
	Rating        string               `json:"rating"`
	FavCount      int                  `json:"fav_count"`
	Relationships *RemoteRelationships `json:"relationships"`
	ApproverID    *int64               `json:"approver_id"`
	UploaderID    int64                `json:"uploader_id"`
	Description   string               `json:"description"`
	CommentCount  int                  `json:"comment_count"`
	IsFavorited   *bool                `json:"is_favorited"`
}

// RemoteFile is the original file of a post. URL is null when the board
// withholds it.
type RemoteFile struct {
	Ext  string  `json:"ext"`
	Size int64   `json:"size"`
	MD5  string  `json:"md5"`
	URL  *string `json:"url"`
}

// RemotePreview is the thumbnail of a post.
type RemotePreview struct {
	URL *string `json:"url"`
}

// RemoteScore is the community score.
type RemoteScore struct {
	Up    int `json:"up"`
	Down  int `json:"down"`
	Total int `json:"total"`
}

// RemoteFlags are the moderation flags.
type RemoteFlags struct {
	Pending bool `json:"pending"`
	Deleted bool `json:"deleted"`
}

// RemoteRelationships holds the parent link.
type RemoteRelationships struct {
	ParentID *int64 `json:"parent_id"`
}

// DecodeRemotePost decodes and validates one listing element.
func DecodeRemotePost(raw []byte) (PostRecord, error) {
	var rp RemotePost
	if err := json.Unmarshal(raw, &rp); err != nil {
		return PostRecord{}, malformed("decode post: %v", err)
	}
	return rp.Record()
}

// Record converts the listing element into a validated PostRecord.
// Tag categories the tracker does not know (copyright, contributor, ...)
// are ignored.
func (rp *RemotePost) Record() (PostRecord, error) {
	if rp.ID <= 0 {
		return PostRecord{}, malformed("post id must be positive, got %d", rp.ID)
	}
	switch {
	case rp.File == nil:
		return PostRecord{}, malformed("post %d: missing file object", rp.ID)
	case rp.Score == nil:
		return PostRecord{}, malformed("post %d: missing score object", rp.ID)
	case rp.Tags == nil:
		return PostRecord{}, malformed("post %d: missing tags object", rp.ID)
	case rp.Flags == nil:
		return PostRecord{}, malformed("post %d: missing flags object", rp.ID)
	case rp.Relationships == nil:
		return PostRecord{}, malformed("post %d: missing relationships object", rp.ID)
	}

	createdAt, err := ParseTimestamp(rp.CreatedAt)
	if err != nil {
		return PostRecord{}, err
	}

	rec := PostRecord{
		ID: rp.ID,
		PostScalars: PostScalars{
			UploaderID:   rp.UploaderID,
			ApproverID:   rp.ApproverID,
			CreatedAt:    createdAt,
			Rating:       rp.Rating,
			Description:  rp.Description,
			FileExt:      rp.File.Ext,
			FileSize:     rp.File.Size,
			ChangeSeq:    rp.ChangeSeq,
			IsDeleted:    rp.Flags.Deleted,
			IsPending:    rp.Flags.Pending,
			CommentCount: rp.CommentCount,
			FavCount:     rp.FavCount,
			ScoreTotal:   rp.Score.Total,
			ScoreUp:      rp.Score.Up,
			ScoreDown:    rp.Score.Down,
		},
		URLs:      &PostURLs{File: deref(rp.File.URL)},
		Tags:      NewTagSet(),
		Favorited: rp.IsFavorited,
	}
	if rp.Preview != nil {
		rec.URLs.Preview = deref(rp.Preview.URL)
	}
	rec.ParentID = rp.Relationships.ParentID

	for category, names := range rp.Tags {
		c := TagCategory(strings.ToLower(category))
		if !c.Valid() {
			continue
		}
		for _, name := range names {
			rec.Tags.Add(TagKey{Name: name, Category: c})
		}
	}

	if err := rec.Validate(); err != nil {
		return PostRecord{}, err
	}
	return rec, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
