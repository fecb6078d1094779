// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package models

import (
	"time"
)

// APIResponse is the envelope used by every local JSON endpoint except the
// listing passthrough, which keeps the board's own shape.
//
//	{"status":"success","data":{...},"metadata":{"timestamp":"..."}}
//	{"status":"error","error":{"code":"NOT_FOUND","message":"..."},"metadata":{...}}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// PostDetail is a mirrored post with its tags and local stats.
type PostDetail struct {
	Post  Post   `json:"post"`
	Tags  []Tag  `json:"tags"`
	Stats *Stats `json:"stats,omitempty"`
}

// RelatedTag is one co-occurrence partner of a tag.
type RelatedTag struct {
	Tag   Tag   `json:"tag"`
	Count int64 `json:"count"`
}

// StoreSummary reports row counts of the local mirror.
type StoreSummary struct {
	Posts     int64 `json:"posts"`
	Tags      int64 `json:"tags"`
	PostTags  int64 `json:"post_tags"`
	Seen      int64 `json:"seen"`
	Favorited int64 `json:"favorited"`
	Hidden    int64 `json:"hidden"`
}

// HealthStatus is the body of the health endpoint.
type HealthStatus struct {
	Status            string     `json:"status"`
	DatabaseConnected bool       `json:"database_connected"`
	SchemaVersion     int        `json:"schema_version"`
	RemoteBreaker     string     `json:"remote_breaker"`
	KnownTags         int        `json:"known_tags"`
	SyncEnabled       bool       `json:"sync_enabled"`
	LastSyncTime      *time.Time `json:"last_sync,omitempty"`
	ImportRunning     bool       `json:"import_running"`
	Uptime            float64    `json:"uptime_seconds"`
}
