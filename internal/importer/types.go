// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package importer

import (
	"time"
)

// ImportStats holds statistics about an export import.
type ImportStats struct {
	// Path is the export file the stats belong to. Progress saved for
	// another file is not resumed.
	Path string `json:"path"`

	// TotalRecords is the number of data rows in the export.
	TotalRecords int64 `json:"total_records"`

	// Processed counts rows read, including skipped ones.
	Processed int64 `json:"processed"`

	// Imported counts rows committed to the store (or that would have
	// been, in a dry run).
	Imported int64 `json:"imported"`

	// Skipped counts rows that failed to parse.
	Skipped int64 `json:"skipped"`

	// Errors counts parsed rows whose write failed.
	Errors int64 `json:"errors"`

	Created   int64 `json:"created"`
	Updated   int64 `json:"updated"`
	Unchanged int64 `json:"unchanged"`
	Stale     int64 `json:"stale"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// LastProcessedRow is the export row number (1-based) of the last row
	// covered by a committed chunk.
	LastProcessedRow int64 `json:"last_processed_row"`

	DryRun bool `json:"dry_run"`
}

// Duration returns the duration of the import operation.
func (s *ImportStats) Duration() time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Progress returns the import progress as a percentage (0-100).
func (s *ImportStats) Progress() float64 {
	if s.TotalRecords == 0 {
		return 0
	}
	return float64(s.Processed) / float64(s.TotalRecords) * 100
}

// RecordsPerSecond returns the import rate.
func (s *ImportStats) RecordsPerSecond() float64 {
	duration := s.Duration().Seconds()
	if duration == 0 {
		return 0
	}
	return float64(s.Processed) / duration
}

// ProgressSummary is the status view served by the API.
type ProgressSummary struct {
	Status          string  `json:"status"`
	Progress        float64 `json:"progress"`
	RecordsPerSec   float64 `json:"records_per_second"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
	EstimatedRemain float64 `json:"estimated_remaining_seconds"`

	ImportStats
}

// ToSummary converts ImportStats to a ProgressSummary with calculated fields.
func (s *ImportStats) ToSummary(running bool) *ProgressSummary {
	summary := &ProgressSummary{
		Progress:       s.Progress(),
		RecordsPerSec:  s.RecordsPerSecond(),
		ElapsedSeconds: s.Duration().Seconds(),
		ImportStats:    *s,
	}

	switch {
	case running:
		summary.Status = "running"
	case s.StartTime.IsZero() || s.EndTime.IsZero():
		summary.Status = "pending"
	default:
		summary.Status = "completed"
	}

	if running && summary.RecordsPerSec > 0 {
		remaining := s.TotalRecords - s.Processed
		summary.EstimatedRemain = float64(remaining) / summary.RecordsPerSec
	}

	return summary
}
