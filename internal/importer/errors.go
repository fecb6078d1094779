// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package importer

import (
	"errors"
	"io"

	"github.com/tomtom215/e6tracker/internal/logging"
)

var (
	// ErrImportRunning is returned by Import while another run is active.
	ErrImportRunning = errors.New("import already in progress")

	// ErrNoImportRunning is returned by Stop when nothing runs.
	ErrNoImportRunning = errors.New("no import in progress")

	// ErrNoExportPath is returned when import.path is not configured.
	ErrNoExportPath = errors.New("no export path configured")
)

func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
