package transcoder

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"media-indexer/internal/filesystem"
)

// PreviewConfig tunes highlight clip generation. Times are in
// milliseconds.
type PreviewConfig struct {
	Segments        int   `json:"segments"`
	SegmentDuration int64 `json:"segmentDuration"`
	ExcludeStart    int64 `json:"excludeStart"`
	ExcludeEnd      int64 `json:"excludeEnd"`
}

// DefaultPreviewConfig is ten one-and-a-half-second segments with no
// head or tail exclusion.
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{Segments: 10, SegmentDuration: 1500}
}

// previewPlan holds the resolved segment start times.
type previewPlan struct {
	starts     []int64
	segmentDur int64
}

// planPreview applies the segment policy:
//   - exclusions that consume the whole file reset to zero
//   - an effective window shorter than one segment is an error
//   - a segment count that does not fit is reduced silently
//   - one segment centers in the window, several spread evenly from
//     the window start to the last position that still fits
func planPreview(durationMS int64, cfg PreviewConfig) (previewPlan, error) {
	if durationMS <= 0 {
		return previewPlan{}, fmt.Errorf("cannot plan preview: unknown duration")
	}
	if cfg.Segments < 1 || cfg.SegmentDuration <= 0 {
		return previewPlan{}, fmt.Errorf("cannot plan preview: bad config %+v", cfg)
	}

	excludeStart, excludeEnd := cfg.ExcludeStart, cfg.ExcludeEnd
	if excludeStart+excludeEnd >= durationMS {
		excludeStart, excludeEnd = 0, 0
	}
	effective := durationMS - excludeStart - excludeEnd

	maxSegments := effective / cfg.SegmentDuration
	if maxSegments < 1 {
		return previewPlan{}, fmt.Errorf("%w: %dms window, %dms segment",
			ErrSegmentTooLong, effective, cfg.SegmentDuration)
	}
	segments := int64(cfg.Segments)
	if segments > maxSegments {
		segments = maxSegments
	}

	starts := make([]int64, segments)
	if segments == 1 {
		starts[0] = excludeStart + (effective-cfg.SegmentDuration)/2
	} else {
		gap := (effective - segments*cfg.SegmentDuration) / (segments - 1)
		for i := int64(0); i < segments; i++ {
			starts[i] = excludeStart + i*(cfg.SegmentDuration+gap)
		}
	}
	return previewPlan{starts: starts, segmentDur: cfg.SegmentDuration}, nil
}

// RenderPreview extracts the planned segments with stream copy, then
// concatenates them into dest with one re-encode pass. Temp files are
// removed best-effort whether or not the concat succeeds.
func (g *Gateway) RenderPreview(ctx context.Context, path string, durationMS int64, dest string, cfg PreviewConfig) error {
	plan, err := planPreview(durationMS, cfg)
	if err != nil {
		return err
	}
	if err := filesystem.EnsureDir(filepath.Dir(dest)); err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "preview-*")
	if err != nil {
		return err
	}
	defer filesystem.BestEffortRemoveAll(tmpDir)

	segPaths := make([]string, len(plan.starts))
	for i, start := range plan.starts {
		seg := filepath.Join(tmpDir, fmt.Sprintf("seg-%03d%s", i, filepath.Ext(path)))
		_, err := g.run(ctx, g.ffmpeg,
			"-y",
			"-ss", fmt.Sprintf("%.3f", float64(start)/1000),
			"-i", path,
			"-t", fmt.Sprintf("%.3f", float64(plan.segmentDur)/1000),
			"-c", "copy",
			"-avoid_negative_ts", "make_zero",
			seg,
		)
		if err != nil {
			return fmt.Errorf("failed to extract preview segment %d: %w", i, err)
		}
		segPaths[i] = seg
	}

	listPath := filepath.Join(tmpDir, "concat.txt")
	if err := writeConcatList(listPath, segPaths); err != nil {
		return err
	}

	_, err = g.run(ctx, g.ffmpeg,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "26",
		"-c:a", "aac",
		"-b:a", "96k",
		"-movflags", "+faststart",
		dest,
	)
	if err != nil {
		return fmt.Errorf("failed to concatenate preview: %w", err)
	}
	return nil
}

func writeConcatList(path string, segments []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, seg := range segments {
		fmt.Fprintf(w, "file '%s'\n", seg)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
