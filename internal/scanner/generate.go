package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"media-indexer/internal/filesystem"
	"media-indexer/internal/logging"
	"media-indexer/internal/mediatypes"
	"media-indexer/internal/metrics"
	"media-indexer/internal/transcoder"
)

// AssetPolicy gates each asset kind and the overwrite behavior.
type AssetPolicy struct {
	Covers   bool
	Sprites  bool
	Previews bool
	// Overwrite deletes and regenerates existing outputs; otherwise an
	// existing output short-circuits with its path unchanged.
	Overwrite bool
}

// Assets is the result of one generation pass. An empty path means that
// kind was disabled or failed.
type Assets struct {
	Info        transcoder.Info
	CoverPath   string
	SpritePath  string
	CuePath     string
	PreviewPath string
}

// AssetGenerator produces covers, sprite sheets with cue files, and
// preview clips for one file at a time.
type AssetGenerator struct {
	gateway    *transcoder.Gateway
	coverDir   string
	spriteDir  string
	previewDir string
	preview    transcoder.PreviewConfig
	policy     AssetPolicy
}

// NewAssetGenerator creates a generator writing into the three asset
// directories.
func NewAssetGenerator(gateway *transcoder.Gateway, coverDir, spriteDir, previewDir string, preview transcoder.PreviewConfig, policy AssetPolicy) *AssetGenerator {
	return &AssetGenerator{
		gateway:    gateway,
		coverDir:   coverDir,
		spriteDir:  spriteDir,
		previewDir: previewDir,
		preview:    preview,
		policy:     policy,
	}
}

// Generate probes the file, then attempts the three asset kinds
// concurrently. A probe failure degrades to zero technical facts; a
// failure in one asset kind nulls only that asset's path. Generate
// never returns an error because no single asset is allowed to sink
// the per-file record save.
func (g *AssetGenerator) Generate(ctx context.Context, path, id string) Assets {
	var out Assets

	info, err := g.gateway.Probe(ctx, path)
	if err != nil {
		logging.Warn("probe failed for %s, keeping zero media facts: %v", path, err)
		metrics.ProbeTotal.WithLabelValues("error").Inc()
	} else {
		metrics.ProbeTotal.WithLabelValues("success").Inc()
	}
	out.Info = info

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		out.CoverPath = g.generateCover(ctx, path, id)
	}()
	go func() {
		defer wg.Done()
		out.SpritePath, out.CuePath = g.generateSprite(ctx, path, id, info.DurationMS)
	}()
	go func() {
		defer wg.Done()
		out.PreviewPath = g.generatePreview(ctx, path, id, info.DurationMS)
	}()
	wg.Wait()
	return out
}

// prepareDest applies the overwrite-vs-skip policy. It returns the
// destination and false when an existing output should be kept.
func prepareDest(dest string, overwrite bool) (string, bool) {
	if !filesystem.Exists(dest) {
		return dest, true
	}
	if !overwrite {
		return dest, false
	}
	filesystem.BestEffortRemove(dest)
	return dest, true
}

func (g *AssetGenerator) generateCover(ctx context.Context, path, id string) string {
	if !g.policy.Covers {
		return ""
	}
	started := time.Now()
	dest, generate := prepareDest(filepath.Join(g.coverDir, id+".jpg"), g.policy.Overwrite)
	if !generate {
		metrics.AssetGenerationsTotal.WithLabelValues("cover", "skipped").Inc()
		return dest
	}

	// A sidecar poster image beats an extracted frame.
	if poster := findPoster(filepath.Dir(path)); poster != "" {
		if err := transcoder.IngestPoster(poster, dest); err == nil {
			logging.Debug("ingested poster %s for %s", poster, path)
			metrics.AssetGenerationsTotal.WithLabelValues("cover", "success").Inc()
			metrics.AssetGenerationDuration.WithLabelValues("cover").Observe(time.Since(started).Seconds())
			return dest
		} else {
			logging.Warn("poster ingestion failed for %s, extracting frame instead: %v", poster, err)
		}
	}

	if err := g.gateway.ExtractCover(ctx, path, dest); err != nil {
		logging.Warn("cover generation failed for %s: %v", path, err)
		metrics.AssetGenerationsTotal.WithLabelValues("cover", "error").Inc()
		return ""
	}
	metrics.AssetGenerationsTotal.WithLabelValues("cover", "success").Inc()
	metrics.AssetGenerationDuration.WithLabelValues("cover").Observe(time.Since(started).Seconds())
	return dest
}

func (g *AssetGenerator) generateSprite(ctx context.Context, path, id string, durationMS int64) (sprite, cue string) {
	if !g.policy.Sprites {
		return "", ""
	}
	started := time.Now()
	spriteDest, genSprite := prepareDest(filepath.Join(g.spriteDir, id+".jpg"), g.policy.Overwrite)
	cueDest, genCue := prepareDest(filepath.Join(g.spriteDir, id+".vtt"), g.policy.Overwrite)
	// The sheet and its cue file describe each other, so a half-present
	// pair is rendered again as a unit even without overwrite. Only a
	// complete pair is skipped.
	if !genSprite && !genCue {
		metrics.AssetGenerationsTotal.WithLabelValues("sprite", "skipped").Inc()
		return spriteDest, cueDest
	}

	if err := g.gateway.RenderSprite(ctx, path, durationMS, spriteDest, cueDest); err != nil {
		logging.Warn("sprite generation failed for %s: %v", path, err)
		metrics.AssetGenerationsTotal.WithLabelValues("sprite", "error").Inc()
		return "", ""
	}
	metrics.AssetGenerationsTotal.WithLabelValues("sprite", "success").Inc()
	metrics.AssetGenerationDuration.WithLabelValues("sprite").Observe(time.Since(started).Seconds())
	return spriteDest, cueDest
}

func (g *AssetGenerator) generatePreview(ctx context.Context, path, id string, durationMS int64) string {
	if !g.policy.Previews {
		return ""
	}
	started := time.Now()
	dest, generate := prepareDest(filepath.Join(g.previewDir, id+".mp4"), g.policy.Overwrite)
	if !generate {
		metrics.AssetGenerationsTotal.WithLabelValues("preview", "skipped").Inc()
		return dest
	}

	if err := g.gateway.RenderPreview(ctx, path, durationMS, dest, g.preview); err != nil {
		logging.Warn("preview generation failed for %s: %v", path, err)
		metrics.AssetGenerationsTotal.WithLabelValues("preview", "error").Inc()
		return ""
	}
	metrics.AssetGenerationsTotal.WithLabelValues("preview", "success").Inc()
	metrics.AssetGenerationDuration.WithLabelValues("preview").Observe(time.Since(started).Seconds())
	return dest
}

// findPoster looks for a decodable sidecar poster image in dir.
func findPoster(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if mediatypes.IsPosterImage(e.Name()) {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}
