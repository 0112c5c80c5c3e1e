package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, status := range []string{"success", "error"} {
		DBWritesTotal.WithLabelValues(status)
		ProbeTotal.WithLabelValues(status)
	}

	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	for _, outcome := range []string{"saved", "updated", "skipped", "failed"} {
		ScanFilesProcessed.WithLabelValues(outcome)
	}

	for _, kind := range []string{"cover", "sprite", "preview"} {
		AssetGenerationDuration.WithLabelValues(kind)
		for _, status := range []string{"success", "skipped", "error"} {
			AssetGenerationsTotal.WithLabelValues(kind, status)
		}
	}

	for _, state := range []string{"live", "hidden", "deleted"} {
		LibraryVideosTotal.WithLabelValues(state)
	}

	for _, event := range []string{"create", "write", "remove", "rename"} {
		WatcherEventsTotal.WithLabelValues(event)
	}
}
