// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/e6tracker/internal/importer"
	"github.com/tomtom215/e6tracker/internal/remote"
	"github.com/tomtom215/e6tracker/internal/syncer"
)

var importFlags struct {
	path      string
	tagsPath  string
	chunkSize int
	dryRun    bool
	fresh     bool
	noResume  bool
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a posts CSV export into the local store",
	Long: `Import reads a posts export (and optionally the tags export that maps
tag names to categories) and reconciles every row into the store. Progress
is checkpointed to the Badger store at import.progress_path, so an
interrupted import resumes where it stopped.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()

		cfg := e.cfg.Import
		if importFlags.path != "" {
			cfg.Path = importFlags.path
		}
		if importFlags.tagsPath != "" {
			cfg.TagsPath = importFlags.tagsPath
		}
		if importFlags.chunkSize > 0 {
			cfg.ChunkSize = importFlags.chunkSize
		}
		cfg.DryRun = cfg.DryRun || importFlags.dryRun

		var progress importer.ProgressTracker = importer.NewInMemoryProgress()
		if cfg.ProgressPath != "" && !importFlags.noResume {
			bp, err := importer.OpenBadgerProgress(cfg.ProgressPath)
			if err != nil {
				return fmt.Errorf("open import progress store: %w", err)
			}
			defer func() { _ = bp.Close() }()
			progress = bp
		}

		imp := importer.NewImporter(&cfg, e.ingester, progress)
		if importFlags.fresh {
			if err := imp.ClearProgress(cmd.Context()); err != nil {
				return fmt.Errorf("clear progress: %w", err)
			}
		}

		stats, err := imp.Import(cmd.Context())
		if stats != nil {
			if perr := printJSON(cmd, stats.ToSummary(false)); perr != nil {
				return perr
			}
		}
		return err
	},
}

var legacyFlags struct {
	dbPath string
}

var legacyCmd = &cobra.Command{
	Use:   "import-legacy",
	Short: "Import vote/favorite state from the legacy tracker's SQLite database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()

		path := legacyFlags.dbPath
		if path == "" {
			path = e.cfg.Import.LegacyDBPath
		}
		if path == "" {
			return errors.New("no legacy database: pass --db or set IMPORT_LEGACY_DB_PATH")
		}

		stats, err := importer.NewLegacyImporter(path, e.ingester).Import(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, stats)
	},
}

var syncFlags struct {
	tags  string
	pages int
	limit int
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch listing pages from the board once and ingest them",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()

		if syncFlags.tags != "" {
			e.cfg.Sync.Tags = syncFlags.tags
		}
		if syncFlags.pages > 0 {
			e.cfg.Sync.Pages = syncFlags.pages
		}
		if syncFlags.limit > 0 {
			e.cfg.Sync.Limit = syncFlags.limit
		}

		mgr := syncer.NewManager(e.cfg, remote.NewClient(&e.cfg.Remote), e.ingester)
		result, err := mgr.TriggerSync(cmd.Context())
		if result != nil {
			if perr := printJSON(cmd, result); perr != nil {
				return perr
			}
		}
		return err
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print row counts of the local store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()

		sum, err := e.db.Store().Summary(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, sum)
	},
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&importFlags.path, "path", "", "posts export CSV (overrides IMPORT_PATH)")
	f.StringVar(&importFlags.tagsPath, "tags-path", "", "tags export CSV (overrides IMPORT_TAGS_PATH)")
	f.IntVar(&importFlags.chunkSize, "chunk-size", 0, "rows per transaction")
	f.BoolVar(&importFlags.dryRun, "dry-run", false, "parse the export without writing")
	f.BoolVar(&importFlags.fresh, "fresh", false, "discard saved progress and start from the first row")
	f.BoolVar(&importFlags.noResume, "no-resume", false, "keep progress in memory only")

	legacyCmd.Flags().StringVar(&legacyFlags.dbPath, "db", "", "SQLite database of the legacy tracker")

	sf := syncCmd.Flags()
	sf.StringVar(&syncFlags.tags, "tags", "", "listing query (default fav:<username>)")
	sf.IntVar(&syncFlags.pages, "pages", 0, "number of listing pages")
	sf.IntVar(&syncFlags.limit, "limit", 0, "posts per page")
}
