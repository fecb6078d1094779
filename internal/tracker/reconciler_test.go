// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/e6tracker/internal/database"
	"github.com/tomtom215/e6tracker/internal/models"
)

// reconcileOnce runs one record through a committed session.
func reconcileOnce(t *testing.T, r *Reconciler, reg *TagRegistry, s Store, rec models.PostRecord) ReconcileResult {
	t.Helper()
	ctx := context.Background()
	sess, err := reg.Begin(ctx, s)
	checkNoError(t, err)
	res, err := r.Reconcile(ctx, s, sess, rec)
	if err != nil {
		sess.Discard()
		t.Fatalf("Reconcile(%d) error = %v", rec.ID, err)
	}
	sess.Commit()
	return res
}

func TestReconcileInsertsUnknownPost(t *testing.T) {
	db := setupTestDB(t)
	cs := &countingStore{Store: db.Store()}
	r := NewReconciler(false)

	fox := key("fox", models.CategoryGeneral)
	res := reconcileOnce(t, r, NewTagRegistry(), cs, record(1, 3, fox))

	if !res.Created() {
		t.Errorf("Outcome = %s, want created", res.Outcome)
	}
	checkIntEqual(t, "added", res.Added, 1)

	got, err := cs.GetPost(context.Background(), 1)
	checkNoError(t, err)
	if got.ChangeSeq != 3 || got.FileURL != "file" || got.Description != "version 3" {
		t.Errorf("stored post = %+v", got)
	}
	if !storedTags(t, cs, 1).Has(fox) {
		t.Error("fox should be associated")
	}
}

func TestReconcileVersionGate(t *testing.T) {
	db := setupTestDB(t)
	cs := &countingStore{Store: db.Store()}
	r := NewReconciler(false)
	reg := NewTagRegistry()
	ctx := context.Background()

	reconcileOnce(t, r, reg, cs, record(7, 5))

	tests := []struct {
		name        string
		changeSeq   int64
		wantOutcome string
		wantSeq     int64
	}{
		{"equal version keeps scalars", 5, OutcomeUnchanged, 5},
		{"older version keeps scalars", 2, OutcomeStale, 5},
		{"newer version replaces scalars", 9, OutcomeUpdated, 9},
		{"then older again is stale", 6, OutcomeStale, 9},
	}
	for _, tt := range tests {
		cs.reset()
		rec := record(7, tt.changeSeq)
		rec.Description = tt.name
		res := reconcileOnce(t, r, reg, cs, rec)

		if res.Outcome != tt.wantOutcome {
			t.Errorf("%s: Outcome = %s, want %s", tt.name, res.Outcome, tt.wantOutcome)
		}
		got, err := cs.GetPost(ctx, 7)
		checkNoError(t, err)
		if got.ChangeSeq != tt.wantSeq {
			t.Errorf("%s: ChangeSeq = %d, want %d", tt.name, got.ChangeSeq, tt.wantSeq)
		}
		if tt.wantOutcome == OutcomeUpdated {
			if got.Description != tt.name || got.FavCount != int(tt.changeSeq) {
				t.Errorf("%s: scalars not replaced: %+v", tt.name, got.PostScalars)
			}
			checkIntEqual(t, tt.name+" scalar updates", cs.scalarUpdates, 1)
		} else {
			if got.Description == tt.name {
				t.Errorf("%s: scalars overwritten by a non-newer record", tt.name)
			}
			checkIntEqual(t, tt.name+" scalar updates", cs.scalarUpdates, 0)
		}
	}
}

func TestReconcileRefreshesURLsRegardlessOfVersion(t *testing.T) {
	db := setupTestDB(t)
	s := db.Store()
	r := NewReconciler(false)
	reg := NewTagRegistry()

	reconcileOnce(t, r, reg, s, record(3, 10))

	stale := record(3, 1)
	stale.URLs = &models.PostURLs{Preview: "new-preview", File: "new-file"}
	res := reconcileOnce(t, r, reg, s, stale)
	if res.Outcome != OutcomeStale || !res.URLsRefreshed {
		t.Errorf("result = %+v", res)
	}

	got, err := s.GetPost(context.Background(), 3)
	checkNoError(t, err)
	if got.FileURL != "new-file" || got.PreviewURL != "new-preview" || got.ChangeSeq != 10 {
		t.Errorf("post = %+v", got)
	}

	// No URL information leaves the stored ones alone.
	bare := record(3, 1)
	bare.URLs = nil
	res = reconcileOnce(t, r, reg, s, bare)
	if res.URLsRefreshed {
		t.Error("record without URLs should not refresh them")
	}
}

func TestReconcileTagDiffIsMinimal(t *testing.T) {
	db := setupTestDB(t)
	cs := &countingStore{Store: db.Store()}
	r := NewReconciler(false)
	reg := NewTagRegistry()

	fox := key("fox", models.CategoryGeneral)
	canine := key("canine", models.CategorySpecies)

	first := record(100, 5, fox)
	reconcileOnce(t, r, reg, cs, first)

	cs.reset()
	second := record(100, 5, fox, canine)
	second.Description = "should not land"
	res := reconcileOnce(t, r, reg, cs, second)

	checkIntEqual(t, "inserts", cs.adds, 1)
	checkIntEqual(t, "deletes", cs.removes, 0)
	checkIntEqual(t, "scalar updates", cs.scalarUpdates, 0)
	if res.Added != 1 || res.Removed != 0 {
		t.Errorf("result = %+v", res)
	}

	got, err := cs.GetPost(context.Background(), 100)
	checkNoError(t, err)
	if got.Description != first.Description {
		t.Errorf("Description = %q, want %q", got.Description, first.Description)
	}
	tags := storedTags(t, cs, 100)
	if len(tags) != 2 || !tags.Has(fox) || !tags.Has(canine) {
		t.Errorf("tags = %v", tags.Keys())
	}
}

func TestReconcileTagsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	cs := &countingStore{Store: db.Store()}
	r := NewReconciler(false)
	reg := NewTagRegistry()

	rec := record(5, 1, key("fox", models.CategoryGeneral), key("solo", models.CategoryGeneral))
	reconcileOnce(t, r, reg, cs, rec)

	cs.reset()
	reconcileOnce(t, r, reg, cs, rec)
	checkIntEqual(t, "inserts", cs.adds, 0)
	checkIntEqual(t, "deletes", cs.removes, 0)
	checkIntEqual(t, "tag rows", cs.tagInserts, 0)
}

func TestReconcileTagRemovalAndCategoryChange(t *testing.T) {
	db := setupTestDB(t)
	cs := &countingStore{Store: db.Store()}
	r := NewReconciler(false)
	reg := NewTagRegistry()

	foxGeneral := key("fox", models.CategoryGeneral)
	foxSpecies := key("fox", models.CategorySpecies)
	solo := key("solo", models.CategoryGeneral)

	reconcileOnce(t, r, reg, cs, record(8, 1, foxGeneral, solo))
	cs.reset()
	reconcileOnce(t, r, reg, cs, record(8, 1, foxSpecies))

	checkIntEqual(t, "inserts", cs.adds, 1)
	checkIntEqual(t, "deletes", cs.removes, 2)
	tags := storedTags(t, cs, 8)
	if len(tags) != 1 || !tags.Has(foxSpecies) {
		t.Errorf("tags = %v", tags.Keys())
	}

	// A record without tag information leaves the set alone.
	cs.reset()
	bare := record(8, 1)
	bare.Tags = nil
	res := reconcileOnce(t, r, reg, cs, bare)
	if res.TagsChecked {
		t.Error("tags should not be checked without tag information")
	}
	checkIntEqual(t, "deletes", cs.removes, 0)

	// An explicit empty set clears it.
	reconcileOnce(t, r, reg, cs, record(8, 1))
	if n := len(storedTags(t, cs, 8)); n != 0 {
		t.Errorf("tags left = %d, want 0", n)
	}
}

func TestReconcileRejectsMalformedBeforeWriting(t *testing.T) {
	db := setupTestDB(t)
	cs := &countingStore{Store: db.Store()}
	r := NewReconciler(false)
	reg := NewTagRegistry()

	rec := record(9, 1, key("x", models.TagCategory("copyright")))
	sess, err := reg.Begin(context.Background(), cs)
	checkNoError(t, err)
	_, err = r.Reconcile(context.Background(), cs, sess, rec)
	if !errors.Is(err, models.ErrMalformedRecord) {
		t.Fatalf("error = %v, want ErrMalformedRecord", err)
	}
	sess.Discard()

	if _, err := cs.GetPost(context.Background(), 9); err == nil {
		t.Error("malformed record must not be stored")
	}
	checkIntEqual(t, "tag rows", cs.tagInserts, 0)
}

func TestReconcileCooccurrence(t *testing.T) {
	db := setupTestDB(t)
	s := db.Store()
	ctx := context.Background()
	r := NewReconciler(true)
	reg := NewTagRegistry()

	fox := key("fox", models.CategoryGeneral)
	solo := key("solo", models.CategoryGeneral)
	canine := key("canine", models.CategorySpecies)

	reconcileOnce(t, r, reg, s, record(1, 1, fox, solo))
	reconcileOnce(t, r, reg, s, record(2, 1, fox, solo, canine))

	id := func(k models.TagKey) int64 {
		v, ok := reg.Lookup(k)
		if !ok {
			t.Fatalf("tag %s not registered", k)
		}
		return v
	}
	count := func(a, b models.TagKey) int64 {
		return relatedCount(t, s, id(a), id(b))
	}

	if got := count(fox, solo); got != 2 {
		t.Errorf("fox/solo = %d, want 2", got)
	}
	if got := count(canine, fox); got != 1 {
		t.Errorf("fox/canine = %d, want 1", got)
	}

	// Post 2 drops solo: pairs with solo lose one, fox/canine is untouched.
	reconcileOnce(t, r, reg, s, record(2, 1, fox, canine))
	if got := count(fox, solo); got != 1 {
		t.Errorf("fox/solo after removal = %d, want 1", got)
	}
	if got := count(solo, canine); got != 0 {
		t.Errorf("solo/canine after removal = %d, want 0", got)
	}
	if got := count(fox, canine); got != 1 {
		t.Errorf("fox/canine after removal = %d, want 1", got)
	}

	related, err := s.RelatedTags(ctx, id(fox), 10)
	checkNoError(t, err)
	if len(related) != 2 {
		t.Errorf("related to fox = %+v", related)
	}
}

// relatedCount is the shared post count of b among the partners of a.
func relatedCount(t *testing.T, s *database.Store, a, b int64) int64 {
	t.Helper()
	related, err := s.RelatedTags(context.Background(), a, database.MaxListLimit)
	checkNoError(t, err)
	for _, r := range related {
		if r.Tag.ID == b {
			return r.Count
		}
	}
	return 0
}

func TestReconcileWithoutCooccurrence(t *testing.T) {
	db := setupTestDB(t)
	s := db.Store()
	reg := NewTagRegistry()

	fox := key("fox", models.CategoryGeneral)
	solo := key("solo", models.CategoryGeneral)
	reconcileOnce(t, NewReconciler(false), reg, s, record(1, 1, fox, solo))

	a, _ := reg.Lookup(fox)
	b, _ := reg.Lookup(solo)
	if n := relatedCount(t, s, a, b); n != 0 {
		t.Errorf("count = %d, want 0 when disabled", n)
	}
}
