package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type stubProvider struct {
	stats Stats
}

func (s *stubProvider) GetStats() Stats { return s.stats }

func TestCollectorPublishesLibraryStats(t *testing.T) {
	provider := &stubProvider{stats: Stats{
		LiveVideos:    12,
		HiddenVideos:  3,
		DeletedVideos: 1,
		TotalActors:   7,
		TotalStudios:  2,
		TotalTags:     9,
	}}

	c := NewCollector(provider, time.Hour)
	c.collect()

	if got := testutil.ToFloat64(LibraryVideosTotal.WithLabelValues("live")); got != 12 {
		t.Errorf("live videos gauge = %v, want 12", got)
	}
	if got := testutil.ToFloat64(LibraryVideosTotal.WithLabelValues("deleted")); got != 1 {
		t.Errorf("deleted videos gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(LibraryActorsTotal); got != 7 {
		t.Errorf("actors gauge = %v, want 7", got)
	}
	if got := testutil.ToFloat64(LibraryTagsTotal); got != 9 {
		t.Errorf("tags gauge = %v, want 9", got)
	}
}

func TestCollectorNilProvider(t *testing.T) {
	c := NewCollector(nil, time.Hour)
	// Must not panic.
	c.collect()
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.2.3", "abc123", "go1.25")
	if got := testutil.ToFloat64(AppInfo.WithLabelValues("1.2.3", "abc123", "go1.25")); got != 1 {
		t.Errorf("app info gauge = %v, want 1", got)
	}
}

func TestInitializeMetricsIsIdempotent(t *testing.T) {
	InitializeMetrics()
	InitializeMetrics()

	if got := testutil.ToFloat64(ScanFilesProcessed.WithLabelValues("saved")); got != 0 {
		t.Errorf("pre-populated counter = %v, want 0", got)
	}
}
