// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package models

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const samplePost = `{
  "id": 100,
  "created_at": "2023-04-01T12:30:00.123-04:00",
  "file": {"ext": "png", "size": 2048, "md5": "abcdef", "url": "https://static1.e621.net/data/ab/cd/abcdef.png"},
  "preview": {"url": "https://static1.e621.net/data/preview/ab/cd/abcdef.jpg"},
  "score": {"up": 10, "down": -2, "total": 8},
  "tags": {"general": ["fox", "solo"], "species": ["canine"], "copyright": ["some_franchise"], "artist": []},
  "change_seq": 5,
  "flags": {"pending": false, "deleted": false},
  "rating": "s",
  "fav_count": 42,
  "relationships": {"parent_id": 99},
  "approver_id": null,
  "uploader_id": 7,
  "description": "a fox",
  "comment_count": 3,
  "is_favorited": true
}`

func TestDecodeRemotePost(t *testing.T) {
	t.Parallel()

	rec, err := DecodeRemotePost([]byte(samplePost))
	if err != nil {
		t.Fatalf("DecodeRemotePost() error = %v", err)
	}

	if rec.ID != 100 || rec.ChangeSeq != 5 || rec.UploaderID != 7 {
		t.Errorf("identity fields = %d/%d/%d", rec.ID, rec.ChangeSeq, rec.UploaderID)
	}
	wantCreated := time.Date(2023, 4, 1, 16, 30, 0, 123000000, time.UTC)
	if !rec.CreatedAt.Equal(wantCreated) || rec.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt = %v, want %v in UTC", rec.CreatedAt, wantCreated)
	}
	if rec.ParentID == nil || *rec.ParentID != 99 {
		t.Errorf("ParentID = %v, want 99", rec.ParentID)
	}
	if rec.ApproverID != nil {
		t.Errorf("ApproverID = %v, want nil", *rec.ApproverID)
	}
	if rec.ScoreUp != 10 || rec.ScoreDown != -2 || rec.ScoreTotal != 8 {
		t.Errorf("score = %d/%d/%d", rec.ScoreUp, rec.ScoreDown, rec.ScoreTotal)
	}
	if rec.URLs == nil || !strings.HasSuffix(rec.URLs.File, "abcdef.png") || !strings.HasSuffix(rec.URLs.Preview, "abcdef.jpg") {
		t.Errorf("URLs = %+v", rec.URLs)
	}
	if rec.Favorited == nil || !*rec.Favorited {
		t.Error("Favorited should be true")
	}

	want := NewTagSet(
		TagKey{"fox", CategoryGeneral},
		TagKey{"solo", CategoryGeneral},
		TagKey{"canine", CategorySpecies},
	)
	if len(rec.Tags) != len(want) {
		t.Fatalf("Tags = %v, want %v (copyright ignored)", rec.Tags.Keys(), want.Keys())
	}
	for k := range want {
		if !rec.Tags.Has(k) {
			t.Errorf("missing tag %s", k)
		}
	}
}

func TestDecodeRemotePostMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(string) string
		wantMsg string
	}{
		{"missing file", func(s string) string {
			return strings.Replace(s, `"file": {"ext": "png", "size": 2048, "md5": "abcdef", "url": "https://static1.e621.net/data/ab/cd/abcdef.png"},`, "", 1)
		}, "missing file"},
		{"missing score", func(s string) string {
			return strings.Replace(s, `"score": {"up": 10, "down": -2, "total": 8},`, "", 1)
		}, "missing score"},
		{"null tags", func(s string) string {
			return strings.Replace(s, `"tags": {"general": ["fox", "solo"], "species": ["canine"], "copyright": ["some_franchise"], "artist": []},`, `"tags": null,`, 1)
		}, "missing tags"},
		{"missing relationships", func(s string) string {
			return strings.Replace(s, `"relationships": {"parent_id": 99},`, "", 1)
		}, "missing relationships"},
		{"bad rating", func(s string) string {
			return strings.Replace(s, `"rating": "s"`, `"rating": "x"`, 1)
		}, "rating"},
		{"bad json", func(s string) string { return s[:20] }, "decode post"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := DecodeRemotePost([]byte(tt.mutate(samplePost)))
			if !errors.Is(err, ErrMalformedRecord) {
				t.Fatalf("error = %v, want ErrMalformedRecord", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestDecodeRemotePostBadTimestampFailsFast(t *testing.T) {
	t.Parallel()

	raw := strings.Replace(samplePost, "2023-04-01T12:30:00.123-04:00", "yesterday", 1)
	_, err := DecodeRemotePost([]byte(raw))

	var tsErr *TimestampError
	if !errors.As(err, &tsErr) {
		t.Fatalf("error = %v, want *TimestampError", err)
	}
	if tsErr.Value != "yesterday" {
		t.Errorf("Value = %q, want yesterday", tsErr.Value)
	}
	if !errors.Is(err, ErrMalformedRecord) {
		t.Error("timestamp errors should match ErrMalformedRecord")
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-02T03:04:05Z", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2024-01-02T03:04:05.5+02:00", time.Date(2024, 1, 2, 1, 4, 5, 500000000, time.UTC)},
		{"2007-02-10 04:53:12.802804", time.Date(2007, 2, 10, 4, 53, 12, 802804000, time.UTC)},
		{"2007-02-10 04:53:12", time.Date(2007, 2, 10, 4, 53, 12, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if err != nil {
			t.Errorf("ParseTimestamp(%q) error = %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) || got.Location() != time.UTC {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "  ", "02/10/2007", "2007-13-40 99:99:99"} {
		if _, err := ParseTimestamp(bad); err == nil {
			t.Errorf("ParseTimestamp(%q) should fail", bad)
		}
	}
}

func TestTagSetDiffIsMinimal(t *testing.T) {
	t.Parallel()

	fox := TagKey{"fox", CategoryGeneral}
	canine := TagKey{"canine", CategorySpecies}
	solo := TagKey{"solo", CategoryGeneral}

	stored := NewTagSet(fox, solo)
	incoming := NewTagSet(fox, canine)

	add, remove := incoming.Diff(stored)
	if len(add) != 1 || add[0] != canine {
		t.Errorf("add = %v, want [canine]", add)
	}
	if len(remove) != 1 || remove[0] != solo {
		t.Errorf("remove = %v, want [solo]", remove)
	}

	add, remove = incoming.Diff(incoming)
	if len(add) != 0 || len(remove) != 0 {
		t.Errorf("self diff should be empty, got %v / %v", add, remove)
	}

	// Same name, different category is a different tag.
	add, remove = NewTagSet(TagKey{"fox", CategorySpecies}).Diff(NewTagSet(fox))
	if len(add) != 1 || len(remove) != 1 {
		t.Errorf("category change should add and remove, got %v / %v", add, remove)
	}
}

func TestParseTagCategory(t *testing.T) {
	t.Parallel()

	for _, c := range AllTagCategories() {
		got, err := ParseTagCategory(strings.ToUpper(string(c)))
		if err != nil || got != c {
			t.Errorf("ParseTagCategory(%q) = %q, %v", c, got, err)
		}
	}
	if _, err := ParseTagCategory("copyright"); !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("copyright should be rejected, got %v", err)
	}
	if c, ok := CategoryFromExportCode(5); !ok || c != CategorySpecies {
		t.Errorf("export code 5 = %q, %v", c, ok)
	}
	if _, ok := CategoryFromExportCode(3); ok {
		t.Error("export code 3 (copyright) should not be tracked")
	}
}

func TestValidateVote(t *testing.T) {
	t.Parallel()

	for _, v := range []int{-1, 0, 1} {
		if err := ValidateVote(v); err != nil {
			t.Errorf("ValidateVote(%d) = %v", v, err)
		}
	}
	for _, v := range []int{-2, 2, 5} {
		if err := ValidateVote(v); !errors.Is(err, ErrInvalidVote) {
			t.Errorf("ValidateVote(%d) = %v, want ErrInvalidVote", v, err)
		}
	}
}

func TestPostRecordValidate(t *testing.T) {
	t.Parallel()

	self := int64(5)
	rec := PostRecord{ID: 5, PostScalars: PostScalars{Rating: "q", CreatedAt: time.Now(), ParentID: &self}}
	if err := rec.Validate(); !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("self-parent should be malformed, got %v", err)
	}

	rec.ParentID = nil
	rec.Tags = NewTagSet(TagKey{"x", TagCategory("copyright")})
	if err := rec.Validate(); !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("unknown category should be malformed, got %v", err)
	}

	rec.Tags = nil
	if err := rec.Validate(); err != nil {
		t.Errorf("record without tag info should validate, got %v", err)
	}
	p := rec.NewPost()
	if p.PreviewURL != "" || p.FileURL != "" {
		t.Error("record without URLs should produce empty URLs")
	}
}
