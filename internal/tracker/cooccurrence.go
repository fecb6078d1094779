// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package tracker

import (
	"context"
	"slices"
)

// updateCooccurrence keeps pair counts equal to the number of posts that
// carry both tags. Pairs of the new set that gained a member get +1; pairs
// of the old set that lost a member get -1. Pairs untouched by the diff
// are left alone.
func updateCooccurrence(ctx context.Context, store PostStore, oldIDs, newIDs []int64, removed, added map[int64]struct{}) error {
	if err := bumpPairs(ctx, store, newIDs, added, 1); err != nil {
		return err
	}
	return bumpPairs(ctx, store, oldIDs, removed, -1)
}

func bumpPairs(ctx context.Context, store PostStore, ids []int64, changed map[int64]struct{}, delta int64) error {
	if len(changed) == 0 {
		return nil
	}
	ids = slices.Clone(ids)
	slices.Sort(ids)
	for i := 0; i < len(ids); i++ {
		_, iChanged := changed[ids[i]]
		for j := i + 1; j < len(ids); j++ {
			if _, jChanged := changed[ids[j]]; !iChanged && !jChanged {
				continue
			}
			if err := store.BumpCooccurrence(ctx, ids[i], ids[j], delta); err != nil {
				return err
			}
		}
	}
	return nil
}
