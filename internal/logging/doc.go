// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

// Package logging provides the process-wide zerolog logger for e6tracker.
//
// JSON output is meant for production, console output for the e6ctl CLI
// and local runs.
//
//	logging.Init(logging.Config{Level: "info", Format: "json", Timestamp: true})
//	logging.Info().Int("posts", n).Msg("Listing page ingested")
//
// # Correlation
//
// Sync and import runs carry a run id, HTTP requests a request id. Both
// travel in the context and are added to every record logged through Ctx:
//
//	ctx = logging.ContextWithNewRunID(ctx)
//	logging.Ctx(ctx).Debug().Int("page", page).Msg("Fetching listing page")
//
// # Redaction
//
// Credentials never reach a log line in clear text. SanitizeURL masks
// api_key style query parameters and userinfo; SanitizeToken and
// SanitizeUsername mask single values.
//
// # slog Adapter
//
// NewSlogLogger bridges log/slog onto the zerolog logger for libraries
// that only speak slog, such as the suture supervisor event hook.
package logging
