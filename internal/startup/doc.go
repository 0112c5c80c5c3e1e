// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// This package centralizes all application configuration and provides consistent
// logging throughout the application lifecycle.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - LIBRARY_ROOTS: List of library root directories, separated by the
//     OS path list separator (default: /media)
//   - VIDEO_EXTENSIONS: Override of the video extension allow-list,
//     same separator (default: built-in list)
//   - DATA_DIR: Path for generated assets (default: /data)
//   - DATABASE_DIR: Path to database directory (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - FFMPEG_PATH / FFPROBE_PATH: Transcoder binaries (default: PATH lookup)
//   - TRANSCODE_TIMEOUT: Per-invocation timeout as Go duration (default: 5m)
//   - PREVIEW_SEGMENTS: Highlight clip segment count (default: 10)
//   - PREVIEW_SEGMENT_MS: Highlight clip segment length (default: 1500)
//   - PREVIEW_EXCLUDE_START_MS / PREVIEW_EXCLUDE_END_MS: Head and tail
//     exclusion windows (default: 0)
//   - GENERATE_COVERS / GENERATE_SPRITES / GENERATE_PREVIEWS: Per-kind
//     asset generation flags (default: true)
//   - OVERWRITE_ASSETS: Regenerate assets that already exist (default: false)
//   - RESCAN_EXISTING: Reprocess files that already have a record (default: false)
//   - WATCH_LIBRARY: Watch roots for changes (default: true)
//   - WATCH_DEBOUNCE: Quiet period before a watch-triggered scan (default: 10s)
//   - LOG_LEVEL: Logging level - trace, debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// # Directory Setup
//
// The database directory must exist and be writable or startup fails.
// Asset directories are created on demand; when one cannot be written,
// only that asset kind is disabled. Missing library roots log a warning
// and are retried on the next scan.
package startup
