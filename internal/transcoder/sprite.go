package transcoder

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/disintegration/imaging"

	"media-indexer/internal/filesystem"
)

const (
	// One sample frame every five seconds of media.
	spriteIntervalMS = 5000
	spriteColumns    = 9
	spriteRows       = 9
	spriteMaxCells   = spriteColumns * spriteRows
	spriteCellWidth  = 320
)

// RenderSprite tiles sampled frames into one sheet at spriteDest and
// writes the matching cue file at cueDest. Cue timing is derived
// arithmetically from the sample interval, never from the rendered
// image, so the two stay consistent even if ffmpeg drops a frame.
func (g *Gateway) RenderSprite(ctx context.Context, path string, durationMS int64, spriteDest, cueDest string) error {
	if durationMS <= 0 {
		return fmt.Errorf("cannot render sprite for %s: unknown duration", path)
	}
	if err := filesystem.EnsureDir(filepath.Dir(spriteDest)); err != nil {
		return err
	}
	if err := filesystem.EnsureDir(filepath.Dir(cueDest)); err != nil {
		return err
	}

	cells := int(durationMS / spriteIntervalMS)
	if durationMS%spriteIntervalMS != 0 {
		cells++
	}
	if cells > spriteMaxCells {
		cells = spriteMaxCells
	}
	if cells < 1 {
		cells = 1
	}

	_, err := g.run(ctx, g.ffmpeg,
		"-y",
		"-i", path,
		"-vf", fmt.Sprintf("fps=1/%d,scale=%d:-1:flags=lanczos,tile=%dx%d",
			spriteIntervalMS/1000, spriteCellWidth, spriteColumns, spriteRows),
		"-frames:v", "1",
		"-q:v", "3",
		spriteDest,
	)
	if err != nil {
		return err
	}

	cellW, cellH, err := spriteCellSize(spriteDest)
	if err != nil {
		return err
	}

	cues := make([]Cue, 0, cells)
	for i := 0; i < cells; i++ {
		start := int64(i) * spriteIntervalMS
		end := start + spriteIntervalMS
		if end > durationMS {
			end = durationMS
		}
		cues = append(cues, Cue{
			StartMS: start,
			EndMS:   end,
			X:       (i % spriteColumns) * cellW,
			Y:       (i / spriteColumns) * cellH,
			W:       cellW,
			H:       cellH,
		})
	}
	return writeCueFile(cueDest, filepath.Base(spriteDest), cues)
}

// spriteCellSize reads the rendered sheet to recover the per-cell
// geometry. The sheet is always a full 9x9 grid; ffmpeg pads missing
// cells with black.
func spriteCellSize(spritePath string) (w, h int, err error) {
	img, err := imaging.Open(spritePath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read sprite sheet %s: %w", spritePath, err)
	}
	b := img.Bounds()
	return b.Dx() / spriteColumns, b.Dy() / spriteRows, nil
}
