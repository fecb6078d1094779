// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

// Package middleware holds the HTTP middleware shared by the API router:
// request ids, access logging and Prometheus request metrics. Everything
// here has the chi signature func(http.Handler) http.Handler.
package middleware
