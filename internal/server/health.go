package server

import (
	"net/http"
	"runtime"
	"time"

	"media-indexer/internal/library"
	"media-indexer/internal/logging"
	"media-indexer/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Busy    bool   `json:"busy"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	Library *library.Stats `json:"library,omitempty"`
}

// health reports process status plus a library census. A failing
// census degrades the status but still returns 200: the database being
// briefly unreadable should not get the process restarted.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(s.startedAt).Round(time.Second).String(),
		Busy:         s.manager.Busy(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	stats, err := library.GatherStats(r.Context(), s.db)
	if err != nil {
		logging.Warn("health check could not gather library stats: %v", err)
		response.Status = statusDegraded
	} else {
		response.Library = &stats
	}

	writeJSON(w, response)
}
