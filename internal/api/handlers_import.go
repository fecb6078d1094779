// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package api

import (
	"context"
	"net/http"
	"time"
)

// StartImport handles POST /api/v1/import. The import outlives the
// request and is followed through GET /api/v1/import/status.
func (h *Handler) StartImport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.imports == nil {
		respondErr(w, r, ErrImportNotConfigured)
		return
	}

	// Keep the request id for the run's log records but not its deadline.
	if err := h.imports.Start(context.WithoutCancel(r.Context())); err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusAccepted, h.imports.GetStats().ToSummary(true), start)
}

// StopImport handles DELETE /api/v1/import.
func (h *Handler) StopImport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.imports == nil {
		respondErr(w, r, ErrImportNotConfigured)
		return
	}
	if err := h.imports.Stop(); err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"message": "Import stop requested"}, start)
}

// ImportStatus handles GET /api/v1/import/status.
func (h *Handler) ImportStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.imports == nil {
		respondErr(w, r, ErrImportNotConfigured)
		return
	}
	running := h.imports.IsRunning()
	respondData(w, http.StatusOK, h.imports.GetStats().ToSummary(running), start)
}
