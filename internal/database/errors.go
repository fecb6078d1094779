// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package database

import (
	"errors"
	"io"
	"time"

	"github.com/tomtom215/e6tracker/internal/logging"
	"github.com/tomtom215/e6tracker/internal/metrics"
)

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource in error paths where Close errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// observe records query latency and errors. A miss (ErrNotFound) is a
// normal outcome and is not counted as an error.
func observe(operation, table string, start time.Time, err *error) {
	var e error
	if err != nil && *err != nil && !errors.Is(*err, ErrNotFound) {
		e = *err
	}
	metrics.RecordDBQuery(operation, table, time.Since(start), e)
}
