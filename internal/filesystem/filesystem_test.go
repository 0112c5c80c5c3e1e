package filesystem

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	present := filepath.Join(dir, "present.txt")
	if err := os.WriteFile(present, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !Exists(present) {
		t.Error("Exists should report true for an existing file")
	}
	if Exists(filepath.Join(dir, "absent.txt")) {
		t.Error("Exists should report false for a missing file")
	}
	if !Exists(dir) {
		t.Error("Exists should report true for a directory")
	}
}

func TestEnsureDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")

	if err := EnsureDir(nested); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	info, err := os.Stat(nested)
	if err != nil {
		t.Fatalf("stat after EnsureDir: %v", err)
	}
	if !info.IsDir() {
		t.Error("EnsureDir should create a directory")
	}

	// Idempotent on an existing directory.
	if err := EnsureDir(nested); err != nil {
		t.Errorf("EnsureDir on existing dir: %v", err)
	}
}

func TestRemoveIfExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "victim.tmp")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := RemoveIfExists(target, DefaultRetryConfig()); err != nil {
		t.Fatalf("RemoveIfExists: %v", err)
	}
	if Exists(target) {
		t.Error("file should be gone after RemoveIfExists")
	}

	// Removing a missing file is not an error.
	if err := RemoveIfExists(target, DefaultRetryConfig()); err != nil {
		t.Errorf("RemoveIfExists on missing file: %v", err)
	}
}

func TestBestEffortRemoveNeverPanics(t *testing.T) {
	t.Parallel()

	BestEffortRemove(filepath.Join(t.TempDir(), "never-existed"))
}
