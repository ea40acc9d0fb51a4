package snapshot_test

import (
	"os"
	"path/filepath"
	"testing"

	"dirsnap/internal/fs"
	"dirsnap/internal/snapshot"
	"dirsnap/internal/testutil"
)

// Scans a real directory twice with a mutation in between and checks the
// full pipeline: write, validate, open, compare.
func TestScanCompare_RealFilesystem(t *testing.T) {
	root := t.TempDir()
	mustWrite := func(rel, content string) {
		t.Helper()
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	mustWrite("keep.txt", "stable")
	mustWrite("gone.txt", "temporary")
	mustWrite("moved/original.txt", "movable payload")
	mustWrite("edited.txt", "before")

	writer := snapshot.NewWriter(fs.NewOSFilesystemManager(), snapshot.NewNopLogger(), testutil.FixedClock())
	outDir := t.TempDir()

	firstPath := filepath.Join(outDir, "first.snap")
	if err := writer.Write(firstPath, root, snapshot.Options{MaxDepth: -1}); err != nil {
		t.Fatalf("first Write() error = %v", err)
	}

	// Mutate the tree: delete, rename across directories, rewrite.
	if err := os.Remove(filepath.Join(root, "gone.txt")); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(filepath.Join(root, "moved", "original.txt"), filepath.Join(root, "relocated.txt")); err != nil {
		t.Fatal(err)
	}
	mustWrite("edited.txt", "after with more bytes")
	mustWrite("fresh.txt", "brand new")

	// Distinct createdAt for the second scan.
	laterWriter := snapshot.NewWriter(fs.NewOSFilesystemManager(), snapshot.NewNopLogger(), snapshot.RealClock{})
	secondPath := filepath.Join(outDir, "second.snap")
	if err := laterWriter.Write(secondPath, root, snapshot.Options{MaxDepth: -1}); err != nil {
		t.Fatalf("second Write() error = %v", err)
	}

	for _, p := range []string{firstPath, secondPath} {
		ok, err := snapshot.Validate(p)
		if err != nil || !ok {
			t.Fatalf("Validate(%s) = %v, %v, want valid", p, ok, err)
		}
	}

	first := snapshot.New(firstPath)
	second := snapshot.New(secondPath)
	if err := first.Open(); err != nil {
		t.Fatalf("Open(first) error = %v", err)
	}
	if err := second.Open(); err != nil {
		t.Fatalf("Open(second) error = %v", err)
	}

	report, err := snapshot.Compare(first, second)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if got := entryPaths(report.Added); len(got) != 1 || filepath.Base(got[0]) != "fresh.txt" {
		t.Errorf("Added = %v, want only fresh.txt", got)
	}
	if got := entryPaths(report.Deleted); len(got) != 1 || filepath.Base(got[0]) != "gone.txt" {
		t.Errorf("Deleted = %v, want only gone.txt", got)
	}
	if len(report.Moved) != 1 {
		t.Fatalf("Moved = %v, want one pair", report.Moved)
	}
	mv := report.Moved[0]
	if filepath.Base(mv.Src.Path) != "original.txt" || filepath.Base(mv.Dst.Path) != "relocated.txt" {
		t.Errorf("move = %s -> %s", mv.Src.Path, mv.Dst.Path)
	}

	var contentPaths []string
	for _, pair := range report.ContentChanged {
		contentPaths = append(contentPaths, filepath.Base(pair.NewValue.Path))
	}
	if len(contentPaths) != 1 || contentPaths[0] != "edited.txt" {
		t.Errorf("ContentChanged = %v, want only edited.txt", contentPaths)
	}
}
