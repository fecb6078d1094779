// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

/*
Package models defines the data structures shared by e6tracker packages.

# Posts and Tags

PostRecord is the normalized form of one post, whatever its source: a
remote listing page (RemotePost, decoded with DecodeRemotePost) or a row
of the CSV export. Post is the stored row, PostScalars its mutable part.

Tags are identified by TagKey, the (name, category) pair. TagSet is the
unordered set used when reconciling a post's tags; Diff returns the
minimal add/remove lists, sorted for deterministic writes.

# Stats

Stats is the locally owned per-post state: first-seen time, vote
direction and favorite/hidden flags. ValidateVote accepts -1, 0 and 1.

# API Responses

APIResponse wraps every local JSON response; APIError carries a stable
machine-readable code next to the message.

# Errors

ErrMalformedRecord marks records that cannot be normalized; ingestion
skips and counts them. Timestamp parse failures are reported as
*TimestampError, which still matches ErrMalformedRecord.
*/
package models
