package metrics

import (
	"time"

	"media-indexer/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current library statistics
type Stats struct {
	LiveVideos    int
	HiddenVideos  int
	DeletedVideos int
	TotalActors   int
	TotalStudios  int
	TotalTags     int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	LibraryVideosTotal.WithLabelValues("live").Set(float64(stats.LiveVideos))
	LibraryVideosTotal.WithLabelValues("hidden").Set(float64(stats.HiddenVideos))
	LibraryVideosTotal.WithLabelValues("deleted").Set(float64(stats.DeletedVideos))
	LibraryActorsTotal.Set(float64(stats.TotalActors))
	LibraryStudiosTotal.Set(float64(stats.TotalStudios))
	LibraryTagsTotal.Set(float64(stats.TotalTags))

	logging.Debug("Metrics collected: videos=%d, actors=%d, studios=%d, tags=%d",
		stats.LiveVideos, stats.TotalActors, stats.TotalStudios, stats.TotalTags)
}
