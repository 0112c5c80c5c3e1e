package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"media-indexer/internal/logging"
	"media-indexer/internal/metrics"
)

// Watcher observes the library roots and fires a callback after a
// quiet period once anything changes. New directories are added to the
// watch set as they appear.
type Watcher struct {
	roots    []string
	debounce time.Duration
	onChange func()

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// NewWatcher creates a watcher; Start must be called to begin.
func NewWatcher(roots []string, debounce time.Duration, onChange func()) *Watcher {
	return &Watcher{
		roots:    roots,
		debounce: debounce,
		onChange: onChange,
		done:     make(chan struct{}),
	}
}

// Start registers every directory under the roots and launches the
// event loop.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw

	watched := 0
	for _, root := range w.roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logging.Warn("watcher skipping %s: %v", path, err)
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			if err := fsw.Add(path); err != nil {
				logging.Warn("watcher failed to add %s: %v", path, err)
				return nil
			}
			watched++
			return nil
		})
		if err != nil {
			logging.Warn("watcher failed walking root %s: %v", root, err)
		}
	}
	logging.Info("watching %d directories under %d roots", watched, len(w.roots))

	go w.loop()
	return nil
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() {
	close(w.done)
	if w.fsw != nil {
		if err := w.fsw.Close(); err != nil {
			logging.Warn("failed to close watcher: %v", err)
		}
	}
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			metrics.WatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()
			logging.Trace("watcher event: %s %s", event.Op, event.Name)

			// Track newly created directories.
			if event.Op.Has(fsnotify.Create) {
				w.maybeWatchDir(event.Name)
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			metrics.WatcherTriggeredScans.Inc()
			logging.Debug("watcher quiet period elapsed, triggering rescan")
			w.onChange()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			metrics.WatcherErrors.Inc()
			logging.Warn("watcher error: %v", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) maybeWatchDir(path string) {
	fi, err := os.Stat(path)
	if err != nil || !fi.IsDir() {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		logging.Warn("watcher failed to add new directory %s: %v", path, err)
	}
}

func eventType(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return "other"
	}
}
