package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-indexer/internal/transcoder"
)

func newSpriteGenerator(t *testing.T, spriteDir string) *AssetGenerator {
	t.Helper()
	gw := transcoder.New("/nonexistent/ffmpeg", "/nonexistent/ffprobe", time.Second)
	policy := AssetPolicy{Sprites: true}
	return NewAssetGenerator(gw, t.TempDir(), spriteDir, t.TempDir(), transcoder.DefaultPreviewConfig(), policy)
}

func TestGenerateSpriteSkipsCompletePair(t *testing.T) {
	t.Parallel()
	spriteDir := t.TempDir()
	id := "deadbeef"
	spritePath := filepath.Join(spriteDir, id+".jpg")
	cuePath := filepath.Join(spriteDir, id+".vtt")
	require.NoError(t, os.WriteFile(spritePath, []byte("sheet"), 0o644))
	require.NoError(t, os.WriteFile(cuePath, []byte("WEBVTT"), 0o644))

	g := newSpriteGenerator(t, spriteDir)
	sprite, cue := g.generateSprite(context.Background(), "/any/clip.mp4", id, 60_000)
	assert.Equal(t, spritePath, sprite)
	assert.Equal(t, cuePath, cue)

	kept, err := os.ReadFile(cuePath)
	require.NoError(t, err)
	assert.Equal(t, "WEBVTT", string(kept), "existing pair is left untouched")
}

func TestGenerateSpriteRegeneratesHalfPair(t *testing.T) {
	t.Parallel()
	spriteDir := t.TempDir()
	id := "deadbeef"
	require.NoError(t, os.WriteFile(filepath.Join(spriteDir, id+".jpg"), []byte("sheet"), 0o644))

	// The cue file is missing, so the pair is rendered again as a unit.
	// With an unrunnable ffmpeg the render fails, proving it was
	// attempted rather than skipped.
	g := newSpriteGenerator(t, spriteDir)
	sprite, cue := g.generateSprite(context.Background(), "/any/clip.mp4", id, 60_000)
	assert.Empty(t, sprite)
	assert.Empty(t, cue)
}
