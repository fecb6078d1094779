// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/e6tracker/internal/importer"
	"github.com/tomtom215/e6tracker/internal/logging"
)

// Importer is the lifecycle of *importer.Importer.
type Importer interface {
	Import(ctx context.Context) (*importer.ImportStats, error)
	IsRunning() bool
	Stop() error
}

// ImportService owns the export import for the life of the process.
//
// With autoStart the import runs once when the service starts. A failed
// run is returned to suture, which restarts the service and thereby
// resumes from the last checkpoint. Without autoStart the service only
// stops an API-triggered run on shutdown.
type ImportService struct {
	importer  Importer
	name      string
	autoStart bool
}

// NewImportService wraps imp.
func NewImportService(imp Importer, autoStart bool) *ImportService {
	return &ImportService{
		importer:  imp,
		name:      "export-import",
		autoStart: autoStart,
	}
}

// Serve implements suture.Service.
func (s *ImportService) Serve(ctx context.Context) error {
	if s.autoStart {
		logging.Info().Msg("Starting automatic export import")
		stats, err := s.importer.Import(ctx)
		switch {
		case err == nil:
			logging.Info().
				Int64("imported", stats.Imported).
				Int64("skipped", stats.Skipped).
				Int64("errors", stats.Errors).
				Msg("Export import completed")
		case ctx.Err() != nil:
			logging.Info().Msg("Export import canceled due to shutdown")
			return ctx.Err()
		case errors.Is(err, importer.ErrNoExportPath):
			return fmt.Errorf("%w: %w", suture.ErrDoNotRestart, err)
		case errors.Is(err, importer.ErrImportRunning):
			// An API-triggered run got there first.
			logging.Info().Msg("Export import already running, skipping auto-start")
		default:
			return fmt.Errorf("import failed: %w", err)
		}
	}

	<-ctx.Done()

	if s.importer.IsRunning() {
		logging.Info().Msg("Stopping running import due to shutdown")
		if err := s.importer.Stop(); err != nil && !errors.Is(err, importer.ErrNoImportRunning) {
			logging.Warn().Err(err).Msg("Failed to stop import")
		}
	}
	return ctx.Err()
}

func (s *ImportService) String() string {
	return s.name
}
