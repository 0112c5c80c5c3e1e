package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"media-indexer/internal/library"
	"media-indexer/internal/logging"
	"media-indexer/internal/metrics"
	"media-indexer/internal/scanner"
	"media-indexer/internal/server"
	"media-indexer/internal/startup"
	"media-indexer/internal/store"
	"media-indexer/internal/tasks"
	"media-indexer/internal/transcoder"
)

const databaseName = "media-indexer.db"

func main() {
	startTime := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize database
	dbStart := time.Now()
	db, err := store.Open(ctx, config.DatabaseDir, databaseName)
	if err != nil {
		startup.LogFatal("Failed to open database: %v", err)
	}
	if err := library.Migrate(ctx, db); err != nil {
		startup.LogFatal("Failed to migrate database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	// Initialize transcoder gateway
	startup.LogTranscoderInit(config.FfmpegPath, config.FfprobePath)
	gateway := transcoder.New(config.FfmpegPath, config.FfprobePath, config.TranscodeTimeout)

	// Repositories
	videos := library.NewVideos(db)
	actors := library.NewActors(db)
	studios := library.NewStudios(db)
	tags := library.NewTags(db)

	// Scanner and cleaner
	startup.LogScannerInit(config.LibraryRoots, config.WatchEnabled)
	generator := scanner.NewAssetGenerator(gateway,
		config.CoverDir, config.SpriteDir, config.PreviewDir,
		config.Preview, scanner.AssetPolicy{
			Covers:    config.Generation.Covers,
			Sprites:   config.Generation.Sprites,
			Previews:  config.Generation.Previews,
			Overwrite: config.Generation.Overwrite,
		})
	scn := scanner.New(config.LibraryRoots, config.Extensions, videos, generator,
		nil, config.Generation.RescanExisting, config.ScanWorkers)
	cleaner := scanner.NewCleaner(videos, config.CoverDir, config.SpriteDir, config.PreviewDir)

	// Background tasks
	manager := tasks.NewManager()
	jobs := map[string]server.Job{
		"scan": func(ctx context.Context, report tasks.Progress) error {
			return scn.Scan(ctx, scanner.Progress(report))
		},
		"clean-missing": func(ctx context.Context, report tasks.Progress) error {
			return cleaner.CleanMissing(ctx, scanner.Progress(report))
		},
		"clean-generated": func(ctx context.Context, report tasks.Progress) error {
			return cleaner.CleanGenerated(ctx, scanner.Progress(report))
		},
		"purge-deleted": func(ctx context.Context, report tasks.Progress) error {
			return cleaner.PurgeDeleted(ctx, scanner.Progress(report))
		},
	}

	submitScan := func() {
		for _, t := range manager.Tasks() {
			if t.Name == "scan" && !t.Status.Terminal() {
				logging.Debug("scan already %s, not submitting another", t.Status)
				return
			}
		}
		manager.Submit("scan", func(report tasks.Progress) error {
			return scn.Scan(ctx, scanner.Progress(report))
		})
	}

	// Initial scan of the library roots
	submitScan()

	// Filesystem watcher
	var watcher *scanner.Watcher
	if config.WatchEnabled {
		watcher = scanner.NewWatcher(config.LibraryRoots, config.WatchDebounce, submitScan)
		if err := watcher.Start(); err != nil {
			logging.Warn("Failed to start library watcher: %v", err)
			watcher = nil
		}
	}

	// Periodic library census for the metrics gauges
	collector := metrics.NewCollector(&statsProvider{ctx: ctx, db: db}, time.Minute)
	collector.Start()

	// HTTP server
	srv := server.New(ctx, db, videos, actors, studios, tags, manager, jobs)
	router := srv.Router(config.LogHealthChecks)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	if config.MetricsEnabled {
		go func() {
			metricsSrv := &http.Server{
				Addr:              ":" + config.MetricsPort,
				Handler:           promhttp.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.Warn("Metrics server error: %v", err)
			}
		}()
	}

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := srv.ListenAndServe(ctx, ":"+config.Port, router); err != nil && err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}

	// ctx is cancelled once a signal arrives; ListenAndServe has
	// already drained in-flight requests by the time it returns.
	startup.LogShutdownInitiated("signal")

	if watcher != nil {
		startup.LogShutdownStep("Stopping library watcher")
		watcher.Stop()
		startup.LogShutdownStepComplete("Library watcher stopped")
	}

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Closing database")
	if err := db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}

	startup.LogShutdownComplete()
}

// statsProvider feeds the library gauges from the database.
type statsProvider struct {
	ctx context.Context
	db  *store.DB
}

func (p *statsProvider) GetStats() metrics.Stats {
	stats, err := library.GatherStats(p.ctx, p.db)
	if err != nil {
		logging.Warn("Failed to gather library stats: %v", err)
		return metrics.Stats{}
	}
	return metrics.Stats{
		LiveVideos:    stats.LiveVideos,
		HiddenVideos:  stats.HiddenVideos,
		DeletedVideos: stats.DeletedVideos,
		TotalActors:   stats.Actors,
		TotalStudios:  stats.Studios,
		TotalTags:     stats.Tags,
	}
}
