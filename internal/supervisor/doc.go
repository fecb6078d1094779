// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

// Package supervisor runs the long-lived parts of the tracker under a
// suture v4 supervisor tree.
//
// The root supervisor has two children:
//
//	e6tracker
//	├── ingest-layer
//	│   ├── sync-manager     (scheduled listing sync)
//	│   └── export-import    (optional auto-start import)
//	└── api-layer
//	    └── http-server
//
// Services are adapters from the services subpackage. Restarts follow the
// usual suture failure threshold and backoff, and restart events are logged
// through sutureslog on top of the zerolog slog bridge:
//
//	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
//	tree.AddIngestService(services.NewSyncService(syncManager))
//	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
//	err = tree.Serve(ctx)
package supervisor
