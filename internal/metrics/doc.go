// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

/*
Package metrics declares the Prometheus collectors of e6tracker.

Collectors are registered on the default registry through promauto and
served by the API router at /metrics:

	curl http://localhost:5021/metrics

# Available Metrics

Store:

	duckdb_query_duration_seconds{operation,table}
	duckdb_query_errors_total{operation,table}

Remote board:

	remote_requests_total{method,endpoint,status}
	remote_request_duration_seconds{method,endpoint}
	remote_throttle_wait_seconds
	circuit_breaker_state{name}
	circuit_breaker_transitions_total{name,from,to}

Ingestion and reconciliation:

	reconcile_records_total{outcome}
	tag_association_changes_total{op}
	tags_created_total
	tag_registry_entries
	ingest_chunks_total{source,result}
	ingest_records_total{source,result}
	ingest_chunk_duration_seconds{source}
	import_last_processed_row
	sync_runs_total{result}
	sync_last_success_timestamp_seconds

Local API:

	api_requests_total{method,endpoint,status_code}
	api_request_duration_seconds{method,endpoint}

Endpoint labels are route patterns or, for remote calls, paths with
numeric segments stripped, so label cardinality stays bounded.
*/
package metrics
