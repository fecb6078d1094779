// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/e6tracker/internal/database"
	"github.com/tomtom215/e6tracker/internal/importer"
	"github.com/tomtom215/e6tracker/internal/models"
	"github.com/tomtom215/e6tracker/internal/remote"
	"github.com/tomtom215/e6tracker/internal/syncer"
	"github.com/tomtom215/e6tracker/internal/tracker"
)

var (
	// ErrSyncNotConfigured is answered when no sync manager is wired.
	ErrSyncNotConfigured = errors.New("sync is not configured")

	// ErrImportNotConfigured is answered when no importer is wired.
	ErrImportNotConfigured = errors.New("import is not configured")
)

// errorResponse classifies err into a status, code and message. Upstream
// failures carry the board's status in details.
func errorResponse(err error) (int, string, string, map[string]interface{}) {
	var apiErr *remote.APIError

	switch {
	case errors.Is(err, tracker.ErrStatsNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "Post has not been seen yet", nil
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "Not found", nil
	case errors.Is(err, models.ErrInvalidVote):
		return http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil
	case errors.Is(err, importer.ErrNoExportPath):
		return http.StatusBadRequest, ErrCodeBadRequest, "No export path configured", nil
	case errors.Is(err, syncer.ErrSyncInProgress):
		return http.StatusConflict, ErrCodeConflict, "A sync is already in progress", nil
	case errors.Is(err, importer.ErrImportRunning):
		return http.StatusConflict, ErrCodeConflict, "An import is already in progress", nil
	case errors.Is(err, importer.ErrNoImportRunning):
		return http.StatusConflict, ErrCodeConflict, "No import is running", nil
	case errors.Is(err, remote.ErrCircuitOpen):
		return http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Remote board temporarily unavailable", nil
	case errors.Is(err, ErrSyncNotConfigured), errors.Is(err, ErrImportNotConfigured):
		return http.StatusServiceUnavailable, ErrCodeServiceUnavailable, err.Error(), nil
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, ErrCodeUpstreamFailed, "Remote board rejected the request",
			map[string]interface{}{"upstream_status": apiErr.StatusCode}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrCodeGatewayTimeout, "Request timed out", nil
	default:
		return http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", nil
	}
}

// respondErr maps err with errorResponse and writes it.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message, details := errorResponse(err)
	respondError(w, r, status, code, message, details, err)
}
