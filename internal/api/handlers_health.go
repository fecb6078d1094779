// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/e6tracker/internal/models"
)

const healthPingTimeout = 2 * time.Second

// Health handles GET /api/v1/health. It answers 503 when the database
// does not respond; an open remote breaker only marks the status
// degraded because the local mirror stays usable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()
	dbConnected := h.db != nil && h.db.Ping(ctx) == nil

	health := models.HealthStatus{
		Status:            "healthy",
		DatabaseConnected: dbConnected,
		RemoteBreaker:     h.remote.BreakerState(),
		KnownTags:         h.ingester.Registry().Len(),
		SyncEnabled:       h.cfg.Sync.Enabled,
		Uptime:            time.Since(h.startTime).Seconds(),
	}
	if dbConnected {
		if v, err := h.db.GetCurrentSchemaVersion(ctx); err == nil {
			health.SchemaVersion = v
		}
	}
	if h.sync != nil {
		if last := h.sync.Status().LastSync; !last.IsZero() {
			health.LastSyncTime = &last
		}
	}
	if h.imports != nil {
		health.ImportRunning = h.imports.IsRunning()
	}

	status := http.StatusOK
	switch {
	case !dbConnected:
		health.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	case health.RemoteBreaker != "closed":
		health.Status = "degraded"
	}
	respondData(w, status, health, start)
}
