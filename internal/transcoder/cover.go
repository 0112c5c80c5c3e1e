package transcoder

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"media-indexer/internal/filesystem"
	"media-indexer/internal/logging"
)

// coverMaxWidth bounds the stored cover so a 4K source does not turn
// into a multi-megabyte thumbnail.
const coverMaxWidth = 640

// ExtractCover grabs a single frame one second in and writes a bounded
// JPEG to dest.
func (g *Gateway) ExtractCover(ctx context.Context, path, dest string) error {
	if err := filesystem.EnsureDir(filepath.Dir(dest)); err != nil {
		return err
	}
	_, err := g.run(ctx, g.ffmpeg,
		"-y",
		"-ss", "1",
		"-i", path,
		"-frames:v", "1",
		"-q:v", "3",
		dest,
	)
	if err != nil {
		return err
	}
	return shrinkInPlace(dest)
}

// IngestPoster converts a sidecar poster image into the cover slot,
// re-encoding to JPEG and downscaling as needed. WebP sources decode
// through the registered image formats.
func IngestPoster(src, dest string) error {
	if err := filesystem.EnsureDir(filepath.Dir(dest)); err != nil {
		return err
	}
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to decode poster %s: %w", src, err)
	}
	if img.Bounds().Dx() > coverMaxWidth {
		img = imaging.Resize(img, coverMaxWidth, 0, imaging.Lanczos)
	}
	return imaging.Save(img, dest, imaging.JPEGQuality(85))
}

// shrinkInPlace downscales an extracted frame when it exceeds the
// cover width bound. A decode failure only logs; the raw frame is
// still a usable cover.
func shrinkInPlace(path string) error {
	img, err := imaging.Open(path)
	if err != nil {
		logging.Warn("keeping full-size cover, decode failed for %s: %v", path, err)
		return nil
	}
	if img.Bounds().Dx() <= coverMaxWidth {
		return nil
	}
	img = imaging.Resize(img, coverMaxWidth, 0, imaging.Lanczos)
	return imaging.Save(img, path, imaging.JPEGQuality(85))
}
