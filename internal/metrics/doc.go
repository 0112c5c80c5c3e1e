// Package metrics provides Prometheus instrumentation for the media indexer.
//
// This package defines and exposes various metrics that can be scraped by Prometheus
// to monitor the health, performance, and behavior of the application. All metrics
// are prefixed with "media_indexer_" to avoid naming collisions with other applications.
//
// # Metric Categories
//
// The metrics are organized into the following categories:
//
// ## HTTP Metrics
//
// Track HTTP request performance and error rates:
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Database Metrics
//
// Monitor the serialized write path and storage:
//   - DBWritesTotal: Counter of serialized write statements by status
//   - DBWriteQueueDepth: Gauge of statements waiting for the writer
//   - DBMigrationsApplied: Counter of schema migrations applied
//   - DBSizeBytes: Gauge of database file sizes (main, WAL, SHM)
//
// ## Scan Metrics
//
// Track library scan operations:
//   - ScanRunsTotal, ScanLastRunTimestamp, ScanLastRunDuration
//   - ScanFilesProcessed: Counter of per-file outcomes
//   - ScanReconciledTotal: Counter of records soft-deleted by reconciliation
//   - ScanIsRunning: Gauge indicating an active scan
//
// ## Asset Generation Metrics
//
// Track cover, sprite, and preview generation:
//   - AssetGenerationsTotal: Counter by kind and status
//   - AssetGenerationDuration: Histogram by kind
//   - ProbeTotal: Counter of media probe invocations
//
// ## Task, Library, and Watcher Metrics
//
// Background task states, library record counts (collected periodically
// by [Collector]), and filesystem watcher activity.
//
// # Initialization
//
// Call [InitializeMetrics] once at startup so every labeled series is
// exported from the first scrape, and [SetAppInfo] to publish build
// information.
package metrics
