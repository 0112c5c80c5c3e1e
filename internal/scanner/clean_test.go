package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-indexer/internal/identity"
	"media-indexer/internal/library"
)

func TestCleanMissingSoftDeletes(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	keep := filepath.Join(root, "keep.mp4")
	gone := filepath.Join(root, "gone.mp4")
	writeFile(t, keep)
	writeFile(t, gone)

	videos := newTestVideos(t)
	ctx := context.Background()
	for _, p := range []string{keep, gone} {
		require.NoError(t, videos.Save(ctx, identity.Identify(p), library.VideoForm{
			FileName: filepath.Base(p),
			FilePath: p,
		}))
	}
	require.NoError(t, os.Remove(gone))

	c := NewCleaner(videos, t.TempDir(), t.TempDir(), t.TempDir())
	require.NoError(t, c.CleanMissing(ctx, nil))

	live, err := videos.List(ctx)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "keep.mp4", live[0].FileName)
}

func TestCleanGeneratedRemovesOrphans(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	videos := newTestVideos(t)

	coverDir := t.TempDir()
	spriteDir := t.TempDir()
	previewDir := t.TempDir()

	known := identity.Identify("/library/known.mp4")
	require.NoError(t, videos.Save(ctx, known, library.VideoForm{
		FileName: "known.mp4",
		FilePath: "/library/known.mp4",
	}))

	orphan := identity.Identify("/library/orphan.mp4")
	knownCover := filepath.Join(coverDir, known+".jpg")
	orphanCover := filepath.Join(coverDir, orphan+".jpg")
	orphanSprite := filepath.Join(spriteDir, orphan+".jpg")
	orphanCue := filepath.Join(spriteDir, orphan+".vtt")
	foreign := filepath.Join(previewDir, "unrelated.mp4")
	for _, p := range []string{knownCover, orphanCover, orphanSprite, orphanCue, foreign} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	c := NewCleaner(videos, coverDir, spriteDir, previewDir)
	require.NoError(t, c.CleanGenerated(ctx, nil))

	assert.FileExists(t, knownCover, "assets of known videos survive")
	assert.FileExists(t, foreign, "files that are not hash-named survive")
	for _, p := range []string{orphanCover, orphanSprite, orphanCue} {
		assert.NoFileExists(t, p)
	}
}

func TestPurgeDeletedRemovesAssets(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	videos := newTestVideos(t)

	coverDir := t.TempDir()
	id := identity.Identify("/library/doomed.mp4")
	cover := filepath.Join(coverDir, id+".jpg")
	require.NoError(t, os.WriteFile(cover, []byte("x"), 0o644))

	require.NoError(t, videos.Save(ctx, id, library.VideoForm{
		FileName:  "doomed.mp4",
		FilePath:  "/library/doomed.mp4",
		CoverPath: cover,
	}))
	require.NoError(t, videos.SoftDelete(ctx, id))

	c := NewCleaner(videos, coverDir, t.TempDir(), t.TempDir())

	var lastMessage string
	require.NoError(t, c.PurgeDeleted(ctx, func(progress, total int, message string) {
		lastMessage = message
	}))
	assert.NoFileExists(t, cover)
	assert.True(t, strings.Contains(lastMessage, "doomed") || strings.Contains(lastMessage, "purging"))

	raw, err := videos.GetAnyByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, raw)
}
