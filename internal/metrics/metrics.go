// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

// Package metrics holds the Prometheus collectors for e6tracker: remote
// API traffic and throttling, reconciliation outcomes, ingest and import
// throughput, the local store and the HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Remote API Metrics
	RemoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remote_requests_total",
			Help: "Total remote API calls by method, endpoint and status (\"error\" for transport failures)",
		},
		[]string{"method", "endpoint", "status"},
	)

	RemoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remote_request_duration_seconds",
			Help:    "Remote API call duration excluding throttle wait",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	RemoteThrottleWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "remote_throttle_wait_seconds",
			Help:    "Time spent waiting for the minimum inter-call interval",
			Buckets: []float64{0, 0.01, 0.05, 0.1, 0.25, 0.5, 0.75, 1, 2, 5},
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Reconciliation Metrics
	ReconcileTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_records_total",
			Help: "Reconciled post records by outcome (created, updated, stale, failed)",
		},
		[]string{"outcome"},
	)

	TagAssociationChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tag_association_changes_total",
			Help: "Post-tag association rows added or removed",
		},
		[]string{"op"},
	)

	TagsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tags_created_total",
			Help: "Tag rows created for previously unseen (name, category) pairs",
		},
	)

	TagRegistrySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tag_registry_entries",
			Help: "Tags held in the in-memory registry",
		},
	)

	// Ingest Metrics
	IngestChunksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_chunks_total",
			Help: "Ingest transactions by source and result (committed, replayed, failed)",
		},
		[]string{"source", "result"},
	)

	IngestRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_records_total",
			Help: "Ingested records by source and result (ok, invalid, failed)",
		},
		[]string{"source", "result"},
	)

	IngestChunkDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_chunk_duration_seconds",
			Help:    "Duration of one ingest transaction",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	ImportProgressRow = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "import_last_processed_row",
			Help: "Last export row committed by the offline importer",
		},
	)

	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Scheduled or triggered listing sync runs by result",
		},
		[]string{"result"},
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_last_success_timestamp_seconds",
			Help: "Unix time of the last successful listing sync",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP API request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// RecordDBQuery records one store query.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordRemoteRequest records one remote call. status is 0 for transport errors.
func RecordRemoteRequest(method, endpoint string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	RemoteRequestsTotal.WithLabelValues(method, endpoint, label).Inc()
	RemoteRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordThrottleWait records how long a caller slept before dispatch.
func RecordThrottleWait(wait time.Duration) {
	RemoteThrottleWait.Observe(wait.Seconds())
}

// RecordTagDiff records the association rows touched for one post.
func RecordTagDiff(added, removed int) {
	if added > 0 {
		TagAssociationChanges.WithLabelValues("add").Add(float64(added))
	}
	if removed > 0 {
		TagAssociationChanges.WithLabelValues("remove").Add(float64(removed))
	}
}

// RecordIngestChunk records one ingest transaction.
func RecordIngestChunk(source, result string, duration time.Duration) {
	IngestChunksTotal.WithLabelValues(source, result).Inc()
	IngestChunkDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordSyncRun records a listing sync run.
func RecordSyncRun(err error) {
	if err != nil {
		SyncRunsTotal.WithLabelValues("error").Inc()
		return
	}
	SyncRunsTotal.WithLabelValues("success").Inc()
	SyncLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordAPIRequest records an HTTP API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
