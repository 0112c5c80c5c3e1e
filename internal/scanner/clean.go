package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"media-indexer/internal/filesystem"
	"media-indexer/internal/library"
	"media-indexer/internal/logging"
)

// Cleaner removes records and generated assets that no longer belong
// to anything.
type Cleaner struct {
	videos     *library.Videos
	coverDir   string
	spriteDir  string
	previewDir string
}

// NewCleaner creates a cleaner over the asset directories.
func NewCleaner(videos *library.Videos, coverDir, spriteDir, previewDir string) *Cleaner {
	return &Cleaner{
		videos:     videos,
		coverDir:   coverDir,
		spriteDir:  spriteDir,
		previewDir: previewDir,
	}
}

// CleanMissing soft-deletes every live record whose file no longer
// exists on disk.
func (c *Cleaner) CleanMissing(ctx context.Context, report Progress) error {
	if report == nil {
		report = noProgress
	}
	all, err := c.videos.List(ctx)
	if err != nil {
		return err
	}
	total := len(all)
	report(0, total, fmt.Sprintf("checking %d records", total))

	removed := 0
	for i, v := range all {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !filesystem.Exists(v.FilePath) {
			if err := c.videos.SoftDelete(ctx, v.ID); err != nil {
				return err
			}
			logging.Info("soft-deleted missing file record %s (%s)", v.ID, v.FilePath)
			removed++
		}
		report(i+1, total, v.FileName)
	}
	report(total, total, fmt.Sprintf("removed %d missing records", removed))
	return nil
}

// CleanGenerated removes generated asset files whose video id is not
// in the store at all. Assets for soft-deleted videos are kept so a
// restore does not regenerate everything.
func (c *Cleaner) CleanGenerated(ctx context.Context, report Progress) error {
	if report == nil {
		report = noProgress
	}
	dirs := []string{c.coverDir, c.spriteDir, c.previewDir}

	var orphans []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			id := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
			if len(id) != 64 {
				// Not one of ours.
				continue
			}
			v, err := c.videos.GetAnyByID(ctx, id)
			if err != nil {
				return err
			}
			if v == nil {
				orphans = append(orphans, filepath.Join(dir, e.Name()))
			}
		}
	}

	total := len(orphans)
	report(0, total, fmt.Sprintf("found %d orphaned assets", total))
	for i, path := range orphans {
		if err := ctx.Err(); err != nil {
			return err
		}
		filesystem.BestEffortRemove(path)
		logging.Debug("removed orphaned asset %s", path)
		report(i+1, total, filepath.Base(path))
	}
	return nil
}

// PurgeDeleted hard-removes soft-deleted records and their generated
// assets.
func (c *Cleaner) PurgeDeleted(ctx context.Context, report Progress) error {
	if report == nil {
		report = noProgress
	}
	purged, err := c.videos.PurgeDeleted(ctx)
	if err != nil {
		return err
	}
	total := len(purged)
	report(0, total, fmt.Sprintf("purging %d records", total))
	for i, v := range purged {
		for _, asset := range []string{v.CoverPath, v.SpritePath, v.VttPath, v.ScreenshotPath} {
			if asset != "" {
				filesystem.BestEffortRemove(asset)
			}
		}
		report(i+1, total, v.FileName)
	}
	logging.Info("purged %d soft-deleted records", total)
	return nil
}
