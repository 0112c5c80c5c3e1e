// Package server exposes the indexer over HTTP: video listing and
// editing, cue geometry, task submission, health, and metrics.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"media-indexer/internal/library"
	"media-indexer/internal/logging"
	"media-indexer/internal/middleware"
	"media-indexer/internal/store"
	"media-indexer/internal/tasks"
)

// Job is a unit of background work submittable through the API.
type Job func(ctx context.Context, report tasks.Progress) error

// Server holds the handler dependencies.
type Server struct {
	db      *store.DB
	videos  *library.Videos
	actors  *library.Actors
	studios *library.Studios
	tags    *library.Tags
	manager *tasks.Manager
	// jobs maps a task kind ("scan", "clean-missing", ...) to its body.
	jobs map[string]Job
	// baseCtx bounds background jobs so shutdown cancels running work.
	baseCtx context.Context

	startedAt time.Time
}

// New creates a server over the repositories and task manager. Jobs
// submitted through the API run under ctx, not the request context.
func New(ctx context.Context, db *store.DB, videos *library.Videos, actors *library.Actors, studios *library.Studios, tags *library.Tags, manager *tasks.Manager, jobs map[string]Job) *Server {
	return &Server{
		db:        db,
		videos:    videos,
		actors:    actors,
		studios:   studios,
		tags:      tags,
		manager:   manager,
		jobs:      jobs,
		baseCtx:   ctx,
		startedAt: time.Now(),
	}
}

// Router builds the full route table.
func (s *Server) Router(logHealthChecks bool) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logger(middleware.LoggingConfig{LogHealthChecks: logHealthChecks}))
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/videos", s.listVideos).Methods(http.MethodGet)
	api.HandleFunc("/videos/{id}", s.getVideo).Methods(http.MethodGet)
	api.HandleFunc("/videos/{id}", s.editVideo).Methods(http.MethodPut)
	api.HandleFunc("/videos/{id}", s.deleteVideo).Methods(http.MethodDelete)
	api.HandleFunc("/videos/{id}/cues", s.getCues).Methods(http.MethodGet)
	api.HandleFunc("/videos/{id}/played", s.markPlayed).Methods(http.MethodPost)
	api.HandleFunc("/actors", s.listActors).Methods(http.MethodGet)
	api.HandleFunc("/studios", s.listStudios).Methods(http.MethodGet)
	api.HandleFunc("/tags", s.listTags).Methods(http.MethodGet)
	api.HandleFunc("/tasks", s.listTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", s.clearTasks).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/{kind}", s.submitTask).Methods(http.MethodPost)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("http shutdown: %v", err)
		}
		return nil
	}
}
