// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

// Package main is the e6tracker server.
//
// The server mirrors the posts a user browses on an e621-style board into
// a local DuckDB store, keeps per-post vote/favorite/hidden state, and
// serves both the annotated remote listing and the local mirror over a
// small JSON API.
//
// Process layout (suture v4):
//
//	e6tracker
//	├── ingest-layer
//	│   ├── sync-manager   (SYNC_ENABLED=true)
//	│   └── export-import  (IMPORT_AUTO_START=true or POST /api/v1/import)
//	└── api-layer
//	    └── http-server
//
// Configuration is read by Koanf v2 from defaults, config.yaml, .env and
// the environment. The minimum for a working server:
//
//	export E621_USERNAME=alice
//	export E621_API_KEY=...
//	export DUCKDB_PATH=/data/e6tracker.duckdb
//	./e6tracker
//
// SIGINT and SIGTERM stop the tree; the HTTP server drains for up to 10s
// and the database is checkpointed on close.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/e6tracker/internal/api"
	"github.com/tomtom215/e6tracker/internal/config"
	"github.com/tomtom215/e6tracker/internal/database"
	"github.com/tomtom215/e6tracker/internal/importer"
	"github.com/tomtom215/e6tracker/internal/logging"
	"github.com/tomtom215/e6tracker/internal/remote"
	"github.com/tomtom215/e6tracker/internal/supervisor"
	"github.com/tomtom215/e6tracker/internal/supervisor/services"
	"github.com/tomtom215/e6tracker/internal/syncer"
	"github.com/tomtom215/e6tracker/internal/tracker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("e6tracker exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("remote", logging.SanitizeURL(cfg.Remote.BaseURL)).
		Str("user", logging.SanitizeUsername(cfg.Remote.Username)).
		Str("db_path", cfg.Database.Path).
		Bool("sync_enabled", cfg.Sync.Enabled).
		Bool("tag_cooccurrence", cfg.Features.TagCooccurrence).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	if cfg.Remote.APIKey == "" {
		logging.Warn().Msg("E621_API_KEY is not set; favorite and vote calls will be rejected by the board")
	}
	client := remote.NewClient(&cfg.Remote)

	ingester := tracker.NewIngester(
		tracker.NewTxRunner(db),
		tracker.NewTagRegistry(),
		tracker.NewReconciler(cfg.Features.TagCooccurrence),
		tracker.NewStatsTracker(),
		tracker.IngestOptions{Observe: cfg.Sync.Observe, ChunkSize: cfg.Import.ChunkSize},
	)

	progress, closeProgress, err := openProgress(&cfg.Import)
	if err != nil {
		return err
	}
	defer closeProgress()
	imports := importer.NewImporter(&cfg.Import, ingester, progress)

	syncManager := syncer.NewManager(cfg, client, ingester)

	handler := api.NewHandler(cfg, db, client, ingester, syncManager, imports)
	router := api.NewRouter(handler, &cfg.Server)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  shutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	if cfg.Sync.Enabled {
		tree.AddIngestService(services.NewSyncService(syncManager))
		logging.Info().Str("schedule", cfg.Sync.Schedule).Msg("Sync manager added to supervisor tree")
	}
	tree.AddIngestService(services.NewImportService(imports, cfg.Import.AutoStart && cfg.Import.Path != ""))
	tree.AddAPIService(services.NewHTTPServerService(server, shutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	err = tree.Serve(ctx)

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	logging.Info().Msg("e6tracker stopped")
	return nil
}

// openProgress opens the Badger checkpoint store when an export is
// configured. Without one, progress lives in memory.
func openProgress(cfg *config.ImportConfig) (importer.ProgressTracker, func(), error) {
	if cfg.Path == "" || cfg.ProgressPath == "" {
		return importer.NewInMemoryProgress(), func() {}, nil
	}

	if err := os.MkdirAll(cfg.ProgressPath, 0o750); err != nil {
		return nil, nil, fmt.Errorf("create progress directory: %w", err)
	}
	progress, err := importer.OpenBadgerProgress(cfg.ProgressPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open import progress store: %w", err)
	}
	return progress, func() {
		if err := progress.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing import progress store")
		}
	}, nil
}
