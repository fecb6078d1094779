// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/e6tracker/internal/config"
	"github.com/tomtom215/e6tracker/internal/logging"
	"github.com/tomtom215/e6tracker/internal/metrics"
	"github.com/tomtom215/e6tracker/internal/tracker"
)

// ProgressTracker defines the interface for tracking import progress.
type ProgressTracker interface {
	// Save persists the current import progress.
	Save(ctx context.Context, stats *ImportStats) error

	// Load retrieves the last saved import progress, nil when none.
	Load(ctx context.Context) (*ImportStats, error)

	// Clear removes saved progress (for fresh imports).
	Clear(ctx context.Context) error
}

// Ingester is the part of tracker.Ingester the importer drives.
type Ingester interface {
	Ingest(ctx context.Context, src tracker.RecordSource, source string, onChunk func(*tracker.ChunkResult) error) (*tracker.IngestStats, error)
}

// Importer runs offline export imports, one at a time.
type Importer struct {
	cfg      *config.ImportConfig
	ingester Ingester
	progress ProgressTracker

	mu      sync.RWMutex
	running bool
	stats   *ImportStats
	cancel  context.CancelFunc
}

// NewImporter creates an importer. progress may be nil, which disables
// resuming.
func NewImporter(cfg *config.ImportConfig, ingester Ingester, progress ProgressTracker) *Importer {
	return &Importer{
		cfg:      cfg,
		ingester: ingester,
		progress: progress,
	}
}

// Import reads the configured export and ingests it in chunks. It resumes
// after the last committed row of a previous run of the same file.
func (i *Importer) Import(ctx context.Context) (*ImportStats, error) {
	runCtx, err := i.begin(ctx)
	if err != nil {
		return nil, err
	}
	return i.run(runCtx)
}

// Start launches Import in the background. ErrNoExportPath and
// ErrImportRunning are reported before anything starts; later failures
// are logged.
func (i *Importer) Start(ctx context.Context) error {
	runCtx, err := i.begin(ctx)
	if err != nil {
		return err
	}
	go func() {
		if _, err := i.run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Ctx(runCtx).Error().Err(err).Msg("Background import failed")
		}
	}()
	return nil
}

// begin claims the single run slot.
func (i *Importer) begin(ctx context.Context) (context.Context, error) {
	if i.cfg.Path == "" {
		return nil, ErrNoExportPath
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.running {
		return nil, ErrImportRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	runCtx = logging.ContextWithRunID(runCtx, uuid.NewString())
	i.running = true
	i.cancel = cancel
	i.stats = &ImportStats{
		Path:      i.cfg.Path,
		StartTime: time.Now(),
		DryRun:    i.cfg.DryRun,
	}
	return runCtx, nil
}

func (i *Importer) run(runCtx context.Context) (*ImportStats, error) {
	defer func() {
		i.mu.Lock()
		if i.cancel != nil {
			i.cancel()
		}
		i.running = false
		i.cancel = nil
		if i.stats.EndTime.IsZero() {
			i.stats.EndTime = time.Now()
		}
		i.mu.Unlock()
	}()

	log := logging.Ctx(runCtx)

	reader, err := NewExportReader(runCtx, i.cfg.Path, ReaderOptions{
		TagsPath:      i.cfg.TagsPath,
		StaticBaseURL: i.cfg.StaticBaseURL,
		WorkDir:       i.cfg.WorkDir,
		MaxMemory:     i.cfg.MaxMemory,
	})
	if err != nil {
		return i.GetStats(), fmt.Errorf("open export: %w", err)
	}
	defer closeWithLog(reader, "export reader")

	base := i.resumePoint(runCtx)

	i.mu.Lock()
	i.stats.TotalRecords = reader.Total()
	i.stats.Processed = base.Processed
	i.stats.Imported = base.Imported
	i.stats.Skipped = base.Skipped
	i.stats.Errors = base.Errors
	i.stats.LastProcessedRow = base.LastProcessedRow
	i.mu.Unlock()

	log.Info().
		Str("path", i.cfg.Path).
		Int64("total_records", reader.Total()).
		Int64("start_row", base.LastProcessedRow).
		Bool("dry_run", i.cfg.DryRun).
		Msg("Starting import")

	if i.cfg.DryRun {
		err = i.dryRun(runCtx, reader, base)
	} else {
		err = i.ingest(runCtx, reader, base)
	}

	i.mu.Lock()
	i.stats.EndTime = time.Now()
	i.mu.Unlock()
	stats := i.GetStats()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn().Int64("last_row", stats.LastProcessedRow).Msg("Import stopped")
		}
		return stats, err
	}

	if i.progress != nil && !i.cfg.DryRun {
		if err := i.progress.Clear(runCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to clear import progress")
		}
	}

	log.Info().
		Int64("imported", stats.Imported).
		Int64("skipped", stats.Skipped).
		Int64("errors", stats.Errors).
		Int64("created", stats.Created).
		Int64("updated", stats.Updated).
		Dur("duration", stats.Duration()).
		Msg("Import completed")

	return stats, nil
}

func (i *Importer) chunkSize() int {
	if i.cfg.ChunkSize <= 0 {
		return tracker.DefaultChunkSize
	}
	return i.cfg.ChunkSize
}

// resumePoint returns the saved progress of the configured file, or an
// empty one.
func (i *Importer) resumePoint(ctx context.Context) ImportStats {
	if i.progress == nil || i.cfg.DryRun {
		return ImportStats{}
	}
	prev, err := i.progress.Load(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to load import progress; starting from the first row")
		return ImportStats{}
	}
	if prev == nil {
		return ImportStats{}
	}
	if prev.Path != i.cfg.Path {
		logging.Ctx(ctx).Info().Str("previous_path", prev.Path).Msg("Saved progress belongs to another export; starting from the first row")
		return ImportStats{}
	}
	logging.Ctx(ctx).Info().Int64("start_row", prev.LastProcessedRow).Msg("Resuming import")
	return *prev
}

func (i *Importer) ingest(ctx context.Context, reader *ExportReader, base ImportStats) error {
	src := newExportSource(reader, base.LastProcessedRow, i.chunkSize())
	var totals tracker.IngestStats

	_, err := i.ingester.Ingest(ctx, src, tracker.SourceExport, func(cr *tracker.ChunkResult) error {
		totals.Add(cr)

		i.mu.Lock()
		i.applyTotals(base, src, &totals)
		stats := *i.stats
		i.mu.Unlock()

		i.checkpoint(ctx, &stats)
		return nil
	})

	i.mu.Lock()
	i.stats.Processed = base.Processed + src.read
	i.stats.Skipped = base.Skipped + src.malformed
	i.stats.LastProcessedRow = src.lastRow
	i.mu.Unlock()
	return err
}

// applyTotals folds the run totals into i.stats. Callers hold i.mu.
func (i *Importer) applyTotals(base ImportStats, src *exportSource, totals *tracker.IngestStats) {
	i.stats.Processed = base.Processed + src.read
	i.stats.Skipped = base.Skipped + src.malformed
	i.stats.Imported = base.Imported + int64(totals.Succeeded)
	i.stats.Errors = base.Errors + int64(totals.Failed)
	i.stats.Created = int64(totals.Created)
	i.stats.Updated = int64(totals.Updated)
	i.stats.Unchanged = int64(totals.Unchanged)
	i.stats.Stale = int64(totals.Stale)
	i.stats.LastProcessedRow = src.lastRow
}

func (i *Importer) checkpoint(ctx context.Context, stats *ImportStats) {
	metrics.ImportProgressRow.Set(float64(stats.LastProcessedRow))

	if i.progress != nil {
		if err := i.progress.Save(ctx, stats); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to save progress")
		}
	}

	logging.Ctx(ctx).Info().
		Float64("progress_percent", stats.Progress()).
		Int64("processed", stats.Processed).
		Int64("total_records", stats.TotalRecords).
		Int64("imported", stats.Imported).
		Int64("skipped", stats.Skipped).
		Int64("errors", stats.Errors).
		Float64("records_per_second", stats.RecordsPerSecond()).
		Msg("Import progress")
}

// dryRun parses every row and counts what would be imported.
func (i *Importer) dryRun(ctx context.Context, reader *ExportReader, base ImportStats) error {
	after := base.LastProcessedRow
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rows, err := reader.ReadChunk(ctx, after, i.chunkSize())
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		i.mu.Lock()
		for _, row := range rows {
			i.stats.Processed++
			if row.Err != nil {
				i.stats.Skipped++
				logging.Ctx(ctx).Debug().Err(row.Err).Msg("Row would be skipped")
				continue
			}
			i.stats.Imported++
		}
		after = rows[len(rows)-1].RowNum
		i.stats.LastProcessedRow = after
		i.mu.Unlock()
	}
}

// Stop cancels a running import. Progress up to the last committed chunk
// is kept.
func (i *Importer) Stop() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.running {
		return ErrNoImportRunning
	}
	i.cancel()
	return nil
}

// ClearProgress forgets saved progress so the next run starts at row one.
func (i *Importer) ClearProgress(ctx context.Context) error {
	if i.IsRunning() {
		return ErrImportRunning
	}
	if i.progress == nil {
		return nil
	}
	return i.progress.Clear(ctx)
}

// GetStats returns a copy of the current import statistics.
func (i *Importer) GetStats() *ImportStats {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.stats == nil {
		return &ImportStats{}
	}
	stats := *i.stats
	return &stats
}

// IsRunning returns whether an import is currently in progress.
func (i *Importer) IsRunning() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.running
}
