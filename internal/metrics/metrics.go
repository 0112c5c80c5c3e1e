package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_indexer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_db_writes_total",
			Help: "Total number of serialized write statements",
		},
		[]string{"status"},
	)

	DBWriteQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_db_write_queue_depth",
			Help: "Number of write statements waiting for the writer",
		},
	)

	DBMigrationsApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_indexer_db_migrations_applied_total",
			Help: "Total number of schema migrations applied",
		},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_indexer_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Scan metrics
var (
	ScanRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_indexer_scan_runs_total",
			Help: "Total number of library scans",
		},
	)

	ScanLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_scan_last_run_timestamp",
			Help: "Timestamp of the last library scan",
		},
	)

	ScanLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_scan_last_run_duration_seconds",
			Help: "Duration of the last library scan in seconds",
		},
	)

	ScanFilesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_scan_files_processed_total",
			Help: "Total number of files processed by scans",
		},
		[]string{"outcome"}, // "saved", "updated", "skipped", "failed"
	)

	ScanReconciledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_indexer_scan_reconciled_total",
			Help: "Total number of records soft-deleted because their file vanished",
		},
	)

	ScanIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_scan_running",
			Help: "Whether a library scan is currently running (1 = running, 0 = idle)",
		},
	)
)

// Asset generation metrics
var (
	AssetGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_asset_generations_total",
			Help: "Total number of asset generation attempts",
		},
		[]string{"kind", "status"}, // kind: "cover", "sprite", "preview"
	)

	AssetGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_indexer_asset_generation_duration_seconds",
			Help:    "Asset generation duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"kind"},
	)

	ProbeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_probe_total",
			Help: "Total number of media probe invocations",
		},
		[]string{"status"},
	)
)

// Task metrics
var (
	TasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_tasks_total",
			Help: "Total number of background tasks by terminal state",
		},
		[]string{"name", "status"},
	)

	TaskQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_task_queue_depth",
			Help: "Number of tasks queued behind the running one",
		},
	)

	TaskRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_task_running",
			Help: "Whether a background task is currently running (1 = running, 0 = idle)",
		},
	)
)

// Library metrics
var (
	LibraryVideosTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_indexer_library_videos_total",
			Help: "Total number of video records by state",
		},
		[]string{"state"}, // "live", "hidden", "deleted"
	)

	LibraryActorsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_library_actors_total",
			Help: "Total number of actor records",
		},
	)

	LibraryStudiosTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_library_studios_total",
			Help: "Total number of studio records",
		},
	)

	LibraryTagsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_library_tags_total",
			Help: "Total number of tag records",
		},
	)
)

// Watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_watcher_events_total",
			Help: "Total number of filesystem watcher events",
		},
		[]string{"event_type"},
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_indexer_watcher_errors_total",
			Help: "Total number of filesystem watcher errors",
		},
	)

	WatcherTriggeredScans = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_indexer_watcher_triggered_scans_total",
			Help: "Total number of scans submitted by the watcher",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_indexer_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
