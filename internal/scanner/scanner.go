// Package scanner walks the library roots, keeps video records in sync
// with the filesystem, and drives asset generation.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"media-indexer/internal/identity"
	"media-indexer/internal/library"
	"media-indexer/internal/logging"
	"media-indexer/internal/mediatypes"
	"media-indexer/internal/metrics"
)

// Progress reports scan advancement to the caller.
type Progress func(progress, total int, message string)

func noProgress(int, int, string) {}

// Scanner walks library roots and reconciles the video table with what
// is actually on disk.
type Scanner struct {
	roots      []string
	extensions mediatypes.ExtensionSet
	videos     *library.Videos
	generator  *AssetGenerator
	resolver   Resolver
	// rescan reprocesses files that already have a live record.
	rescan  bool
	workers int
}

// New creates a scanner over the given roots.
func New(roots []string, extensions mediatypes.ExtensionSet, videos *library.Videos, generator *AssetGenerator, resolver Resolver, rescan bool, workers int) *Scanner {
	if resolver == nil {
		resolver = FilenameResolver{}
	}
	if workers < 1 {
		workers = 1
	}
	return &Scanner{
		roots:      roots,
		extensions: extensions,
		videos:     videos,
		generator:  generator,
		resolver:   resolver,
		rescan:     rescan,
		workers:    workers,
	}
}

// Scan runs one full pass: enumerate every candidate under every root,
// process each file, then soft-delete records whose file is gone. The
// candidate set is collected completely before any processing so the
// reconciliation step sees the whole picture. Per-file errors are
// logged and counted, never fatal to the scan.
func (s *Scanner) Scan(ctx context.Context, report Progress) error {
	if report == nil {
		report = noProgress
	}
	started := time.Now()
	metrics.ScanRunsTotal.Inc()
	metrics.ScanIsRunning.Set(1)
	defer func() {
		metrics.ScanIsRunning.Set(0)
		metrics.ScanLastRunTimestamp.SetToCurrentTime()
		metrics.ScanLastRunDuration.Set(time.Since(started).Seconds())
	}()

	candidates, err := s.enumerate(ctx)
	if err != nil {
		return err
	}
	total := len(candidates)
	logging.Info("scan discovered %d candidate files", total)
	report(0, total, fmt.Sprintf("discovered %d files", total))

	seen := make(map[string]struct{}, total)
	for i, path := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		seen[path] = struct{}{}
		s.processFile(ctx, path)
		report(i+1, total, filepath.Base(path))
	}

	removed, err := s.reconcile(ctx, seen)
	if err != nil {
		return err
	}
	if removed > 0 {
		logging.Info("scan reconciled %d vanished files", removed)
	}
	report(total, total, "scan complete")
	return nil
}

// enumerate walks every root and returns all allow-listed files,
// sorted and deduplicated so a file under overlapping roots is
// processed once per pass. Roots walk in parallel, bounded by the
// worker count; a missing root logs and contributes nothing.
func (s *Scanner) enumerate(ctx context.Context) ([]string, error) {
	var (
		mu    sync.Mutex
		found []string
		wg    sync.WaitGroup
	)
	sem := make(chan struct{}, s.workers)

	for _, root := range s.roots {
		root := root
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			var local []string
			err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					logging.Warn("scan skipping %s: %v", path, err)
					if d != nil && d.IsDir() {
						return fs.SkipDir
					}
					return nil
				}
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				if d.IsDir() {
					return nil
				}
				if s.extensions.Match(d.Name()) {
					local = append(local, path)
				}
				return nil
			})
			if err != nil && ctx.Err() == nil {
				logging.Warn("scan failed walking root %s: %v", root, err)
			}
			mu.Lock()
			found = append(found, local...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Strings(found)
	return dedupe(found), nil
}

// dedupe removes adjacent duplicates from a sorted slice, in place.
func dedupe(sorted []string) []string {
	out := sorted[:0]
	for _, s := range sorted {
		if len(out) == 0 || out[len(out)-1] != s {
			out = append(out, s)
		}
	}
	return out
}

// processFile brings one file's record up to date. Identity is derived
// from the absolute path, so a moved file becomes a new record and its
// old one falls to reconciliation.
func (s *Scanner) processFile(ctx context.Context, path string) {
	id := identity.Identify(path)

	existing, err := s.videos.GetAnyByID(ctx, id)
	if err != nil {
		logging.Error("scan lookup failed for %s: %v", path, err)
		metrics.ScanFilesProcessed.WithLabelValues("failed").Inc()
		return
	}
	if existing != nil && existing.IsDeleted == 0 && !s.rescan {
		metrics.ScanFilesProcessed.WithLabelValues("skipped").Inc()
		return
	}

	stat, err := os.Stat(path)
	if err != nil {
		logging.Error("scan stat failed for %s: %v", path, err)
		metrics.ScanFilesProcessed.WithLabelValues("failed").Inc()
		return
	}

	// A no-op for new files; flags existing rows as in-flight.
	if err := s.videos.UpdateStatus(ctx, id, library.ScanStatusScanning, ""); err != nil {
		logging.Warn("scan status update failed for %s: %v", path, err)
	}

	assets := s.generator.Generate(ctx, path, id)
	meta := s.resolver.Resolve(path)

	form := library.VideoForm{
		FileName:      filepath.Base(path),
		FilePath:      path,
		FileSize:      stat.Size(),
		FileBirthtime: stat.ModTime().UnixMilli(),

		DurationMS:      assets.Info.DurationMS,
		Width:           assets.Info.Width,
		Height:          assets.Info.Height,
		FPS:             assets.Info.FPS,
		BitRate:         assets.Info.BitRate,
		VideoCodec:      assets.Info.VideoCodec,
		AudioCodec:      assets.Info.AudioCodec,
		ContainerFormat: assets.Info.ContainerFormat,

		CoverPath:  assets.CoverPath,
		SpritePath: assets.SpritePath,
		VttPath:    assets.CuePath,

		Title:       meta.Title,
		Description: meta.Description,
		ReleaseDate: meta.ReleaseDate,
		Director:    meta.Director,
		Link:        meta.Link,
		Studio:      meta.Studio,
		Actors:      meta.Actors,
		Tags:        meta.Tags,
	}
	form.ScreenshotPath = assets.PreviewPath

	outcome := "saved"
	if existing == nil {
		err = s.videos.Save(ctx, id, form)
	} else {
		outcome = "updated"
		err = s.videos.Update(ctx, id, form)
	}
	if err != nil {
		logging.Error("scan save failed for %s: %v", path, err)
		metrics.ScanFilesProcessed.WithLabelValues("failed").Inc()
		if serr := s.videos.UpdateStatus(ctx, id, library.ScanStatusError, err.Error()); serr != nil {
			logging.Warn("scan error status update failed for %s: %v", path, serr)
		}
		return
	}
	if err := s.videos.UpdateStatus(ctx, id, library.ScanStatusCompleted, ""); err != nil {
		logging.Warn("scan status update failed for %s: %v", path, err)
	}
	metrics.ScanFilesProcessed.WithLabelValues(outcome).Inc()
}

// reconcile soft-deletes every live record whose path the enumeration
// did not see. Doomed ids are collected first and deleted only after
// the iteration finishes: EachLive pages over the live predicate, so
// mutating rows mid-iteration would shift later pages past unvisited
// records.
func (s *Scanner) reconcile(ctx context.Context, seen map[string]struct{}) (int, error) {
	var doomed []string
	err := s.videos.EachLive(ctx, 500, func(batch []library.Video) error {
		for _, v := range batch {
			if _, ok := seen[v.FilePath]; ok {
				continue
			}
			logging.Debug("reconciling vanished file %s", v.FilePath)
			doomed = append(doomed, v.ID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for i, id := range doomed {
		if err := s.videos.SoftDelete(ctx, id); err != nil {
			return i, err
		}
		metrics.ScanReconciledTotal.Inc()
	}
	return len(doomed), nil
}
