// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/e6tracker/internal/database"
	"github.com/tomtom215/e6tracker/internal/logging"
	"github.com/tomtom215/e6tracker/internal/metrics"
	"github.com/tomtom215/e6tracker/internal/models"
)

// Reconcile outcomes, also used as metric labels.
const (
	OutcomeCreated   = "created"
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeStale     = "stale"
)

// ReconcileResult describes what one Reconcile call changed.
type ReconcileResult struct {
	Post    models.Post
	Outcome string

	URLsRefreshed bool
	TagsChecked   bool
	Added         int
	Removed       int
}

// Created reports whether the post was new.
func (r ReconcileResult) Created() bool { return r.Outcome == OutcomeCreated }

// Reconciler merges one record into the store.
type Reconciler struct {
	cooccurrence bool
}

// NewReconciler creates a reconciler. With cooccurrence set, tag pair
// counts are maintained alongside every tag diff.
func NewReconciler(cooccurrence bool) *Reconciler {
	return &Reconciler{cooccurrence: cooccurrence}
}

// Reconcile applies rec to the store:
//   - an unknown id is inserted verbatim
//   - scalars are replaced only when rec.ChangeSeq is strictly greater
//   - URLs are refreshed whenever the record carries them
//   - the stored tag set is moved to rec.Tags by a minimal diff whenever
//     the record carries a tag set
//
// rec is validated before the first write.
func (r *Reconciler) Reconcile(ctx context.Context, store PostStore, tags *TagSession, rec models.PostRecord) (ReconcileResult, error) {
	if err := rec.Validate(); err != nil {
		return ReconcileResult{}, err
	}

	var res ReconcileResult

	stored, err := store.GetPost(ctx, rec.ID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		p := rec.NewPost()
		if err := store.InsertPost(ctx, p); err != nil {
			return ReconcileResult{}, err
		}
		res.Post = p
		res.Outcome = OutcomeCreated
		res.URLsRefreshed = rec.URLs != nil
	case err != nil:
		return ReconcileResult{}, err
	default:
		res.Post = stored
		switch {
		case rec.ChangeSeq > stored.ChangeSeq:
			if err := store.UpdatePostScalars(ctx, rec.ID, rec.PostScalars); err != nil {
				return ReconcileResult{}, err
			}
			res.Post.PostScalars = rec.PostScalars
			res.Outcome = OutcomeUpdated
		case rec.ChangeSeq < stored.ChangeSeq:
			res.Outcome = OutcomeStale
		default:
			res.Outcome = OutcomeUnchanged
		}

		if rec.URLs != nil && (rec.URLs.Preview != stored.PreviewURL || rec.URLs.File != stored.FileURL) {
			if err := store.UpdatePostURLs(ctx, rec.ID, rec.URLs.Preview, rec.URLs.File); err != nil {
				return ReconcileResult{}, err
			}
			res.Post.PreviewURL = rec.URLs.Preview
			res.Post.FileURL = rec.URLs.File
			res.URLsRefreshed = true
		}
	}

	if rec.Tags != nil {
		added, removed, err := r.reconcileTags(ctx, store, tags, rec, res.Outcome == OutcomeCreated)
		if err != nil {
			return ReconcileResult{}, err
		}
		res.TagsChecked = true
		res.Added = added
		res.Removed = removed
	}

	metrics.ReconcileTotal.WithLabelValues(res.Outcome).Inc()
	metrics.RecordTagDiff(res.Added, res.Removed)

	logging.Ctx(ctx).Debug().
		Int64("post_id", rec.ID).
		Int64("change_seq", rec.ChangeSeq).
		Str("outcome", res.Outcome).
		Int("added", res.Added).
		Int("removed", res.Removed).
		Msg("Post reconciled")

	return res, nil
}

func (r *Reconciler) reconcileTags(ctx context.Context, store PostStore, tags *TagSession, rec models.PostRecord, created bool) (added, removed int, err error) {
	stored := map[models.TagKey]int64{}
	if !created {
		if stored, err = store.PostTagKeys(ctx, rec.ID); err != nil {
			return 0, 0, err
		}
	}

	storedSet := models.NewTagSet()
	for k := range stored {
		storedSet.Add(k)
	}
	toAdd, toRemove := rec.Tags.Diff(storedSet)
	if len(toAdd) == 0 && len(toRemove) == 0 {
		return 0, 0, nil
	}
	if len(toAdd) > 0 && tags == nil {
		return 0, 0, fmt.Errorf("post %d: tag session required to add tags", rec.ID)
	}

	addedIDs := make(map[int64]struct{}, len(toAdd))
	for _, key := range toAdd {
		id, err := tags.Resolve(ctx, key)
		if err != nil {
			return 0, 0, err
		}
		if err := store.AddPostTag(ctx, rec.ID, id); err != nil {
			return 0, 0, err
		}
		addedIDs[id] = struct{}{}
	}

	removedIDs := make(map[int64]struct{}, len(toRemove))
	for _, key := range toRemove {
		id := stored[key]
		if err := store.RemovePostTag(ctx, rec.ID, id); err != nil {
			return 0, 0, err
		}
		removedIDs[id] = struct{}{}
	}

	if r.cooccurrence {
		oldIDs := make([]int64, 0, len(stored))
		for _, id := range stored {
			oldIDs = append(oldIDs, id)
		}
		newIDs := make([]int64, 0, len(rec.Tags))
		for _, id := range stored {
			if _, gone := removedIDs[id]; !gone {
				newIDs = append(newIDs, id)
			}
		}
		for id := range addedIDs {
			newIDs = append(newIDs, id)
		}
		if err := updateCooccurrence(ctx, store, oldIDs, newIDs, removedIDs, addedIDs); err != nil {
			return 0, 0, err
		}
	}

	return len(toAdd), len(toRemove), nil
}
