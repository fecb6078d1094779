// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

// Package main is e6ctl, the operator CLI of e6tracker. It works on the
// same DuckDB file and configuration as the server and must not run
// while the server holds the database.
//
//	e6ctl import --path posts.csv --tags-path tags.csv
//	e6ctl import-legacy --db tracker.db
//	e6ctl sync --pages 3
//	e6ctl stats
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/e6tracker/internal/config"
	"github.com/tomtom215/e6tracker/internal/database"
	"github.com/tomtom215/e6tracker/internal/logging"
	"github.com/tomtom215/e6tracker/internal/tracker"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "e6ctl",
	Short:         "Operate an e6tracker store from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (overrides CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(importCmd, legacyCmd, syncCmd, statsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env is what every subcommand needs: configuration, the store and the
// ingester over it.
type env struct {
	cfg      *config.Config
	db       *database.DB
	ingester *tracker.Ingester
}

func setup() (*env, error) {
	if configPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, configPath); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    "console",
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &env{
		cfg: cfg,
		db:  db,
		ingester: tracker.NewIngester(
			tracker.NewTxRunner(db),
			tracker.NewTagRegistry(),
			tracker.NewReconciler(cfg.Features.TagCooccurrence),
			tracker.NewStatsTracker(),
			tracker.IngestOptions{Observe: cfg.Sync.Observe, ChunkSize: cfg.Import.ChunkSize},
		),
	}, nil
}

func (e *env) close() {
	if err := e.db.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing database")
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
