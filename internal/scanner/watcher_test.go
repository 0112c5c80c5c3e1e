package scanner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherFiresAfterQuietPeriod(t *testing.T) {
	root := t.TempDir()

	fired := make(chan struct{}, 1)
	w := NewWatcher([]string{root}, 50*time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "new.mp4"), []byte("x"), 0o644))

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never fired")
	}
}

func TestWatcherPicksUpNewDirectories(t *testing.T) {
	root := t.TempDir()

	fired := make(chan struct{}, 4)
	w := NewWatcher([]string{root}, 50*time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, w.Start())
	defer w.Stop()

	sub := filepath.Join(root, "season-1")
	require.NoError(t, os.Mkdir(sub, 0o755))

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never fired for the new directory")
	}

	// Give the watcher a moment to register the new directory, then a
	// write inside it must also fire.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "ep1.mp4"), []byte("x"), 0o644))

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never fired for the file in the new directory")
	}
}
