// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package api

import (
	"net/http"
	"time"
)

// TriggerSync handles POST /api/v1/sync. The sync runs in the request and
// answers with its result; a concurrent run answers 409.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.sync == nil {
		respondErr(w, r, ErrSyncNotConfigured)
		return
	}

	result, err := h.sync.TriggerSync(r.Context())
	if err != nil {
		// A run that failed midway still reports its pages.
		if result != nil {
			status, code, message, details := errorResponse(err)
			if details == nil {
				details = map[string]interface{}{}
			}
			details["result"] = result
			respondError(w, r, status, code, message, details, err)
			return
		}
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, result, start)
}

// SyncStatus handles GET /api/v1/sync/status.
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.sync == nil {
		respondErr(w, r, ErrSyncNotConfigured)
		return
	}
	respondData(w, http.StatusOK, h.sync.Status(), start)
}
