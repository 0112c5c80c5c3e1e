package identity

import (
	"testing"
)

func TestIdentifyDeterministic(t *testing.T) {
	t.Parallel()

	const path = "/media/movies/example.mp4"
	first := Identify(path)
	for i := 0; i < 10; i++ {
		if got := Identify(path); got != first {
			t.Fatalf("Identify is not deterministic: %q != %q", got, first)
		}
	}
}

func TestIdentifyFormat(t *testing.T) {
	t.Parallel()

	id := Identify("/media/movies/example.mp4")
	if len(id) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(id))
	}
	for _, c := range id {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			t.Errorf("unexpected character %q in id", c)
		}
	}
}

func TestIdentifyCollisionFree(t *testing.T) {
	t.Parallel()

	paths := []string{
		"/media/a.mp4",
		"/media/A.mp4",
		"/media/a.mkv",
		"/media/sub/a.mp4",
		"/media/a.mp4 ",
		"",
		"/",
	}
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		id := Identify(p)
		if prev, ok := seen[id]; ok {
			t.Errorf("collision between %q and %q", prev, p)
		}
		seen[id] = p
	}
}
