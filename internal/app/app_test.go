package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dirsnap/internal/config"
	"dirsnap/internal/snapshot"
)

func newTestApp(t *testing.T, operation string) (*App, string) {
	t.Helper()

	cfg := config.NewConfig("test-machine", t.TempDir())
	cfg.Scan.Exclude = []string{"*.tmp"}

	a, err := NewApp(cfg, operation)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })

	root := t.TempDir()
	writeFile(t, root, "keep.txt", "stable content")
	writeFile(t, root, "scratch.tmp", "ignored")
	return a, root
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestApp_Scan(t *testing.T) {
	a, root := newTestApp(t, "Scan")

	out := filepath.Join(t.TempDir(), "first.snap")
	rec, err := a.Scan(out, root, snapshot.Options{MaxDepth: -1})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if rec.ID == "" {
		t.Error("snapshot record has no ID")
	}
	if rec.MachineID != "test-machine" {
		t.Errorf("MachineID = %q, want configured machine", rec.MachineID)
	}
	// Config-level exclude dropped scratch.tmp.
	if rec.EntryCount != 1 {
		t.Errorf("EntryCount = %d, want 1", rec.EntryCount)
	}

	ok, err := a.Validate(out)
	if err != nil || !ok {
		t.Errorf("Validate() = %v, %v, want valid", ok, err)
	}

	recs, err := a.Snapshots(10)
	if err != nil {
		t.Fatalf("Snapshots() error = %v", err)
	}
	if len(recs) != 1 || recs[0].ID != rec.ID {
		t.Errorf("Snapshots() = %+v, want the scanned record", recs)
	}

	ops, err := a.History(10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(ops) != 1 || ops[0].Operation != "Scan" {
		t.Errorf("History() = %+v, want one Scan operation", ops)
	}
}

func TestApp_ScanCompare(t *testing.T) {
	a, root := newTestApp(t, "Compare")
	outDir := t.TempDir()

	first := filepath.Join(outDir, "first.snap")
	if _, err := a.Scan(first, root, snapshot.Options{MaxDepth: -1}); err != nil {
		t.Fatalf("first Scan() error = %v", err)
	}

	writeFile(t, root, "fresh.txt", "new content")
	// Snapshot timestamps have millisecond precision; keep them distinct.
	time.Sleep(10 * time.Millisecond)

	second := filepath.Join(outDir, "second.snap")
	if _, err := a.Scan(second, root, snapshot.Options{MaxDepth: -1}); err != nil {
		t.Fatalf("second Scan() error = %v", err)
	}

	report, err := a.Compare(first, second)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if len(report.Added) != 1 || filepath.Base(report.Added[0].Path) != "fresh.txt" {
		t.Errorf("Added = %+v, want only fresh.txt", report.Added)
	}
	if len(report.Deleted) != 0 {
		t.Errorf("Deleted = %+v, want empty", report.Deleted)
	}
}

func TestApp_Compare_MissingInput(t *testing.T) {
	a, root := newTestApp(t, "Compare")

	out := filepath.Join(t.TempDir(), "only.snap")
	if _, err := a.Scan(out, root, snapshot.Options{MaxDepth: -1}); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if _, err := a.Compare(out, filepath.Join(t.TempDir(), "missing.snap")); err == nil {
		t.Error("Compare() expected error for missing input")
	}
}

func TestApp_ArchiveAndFetch(t *testing.T) {
	a, root := newTestApp(t, "Archive")

	out := filepath.Join(t.TempDir(), "scan.snap")
	rec, err := a.Scan(out, root, snapshot.Options{MaxDepth: -1})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	id, err := a.ArchiveSnapshot(out)
	if err != nil {
		t.Fatalf("ArchiveSnapshot() error = %v", err)
	}
	if id != rec.ID {
		t.Errorf("archived id = %q, want catalog id %q", id, rec.ID)
	}

	dest := filepath.Join(t.TempDir(), "fetched.snap")
	if err := a.FetchSnapshot(id, dest); err != nil {
		t.Fatalf("FetchSnapshot() error = %v", err)
	}

	original, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	fetched, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(original) != string(fetched) {
		t.Error("fetched snapshot differs from original")
	}
}

func TestApp_ArchiveForeignSnapshot(t *testing.T) {
	a, root := newTestApp(t, "Archive")

	// Produce a snapshot, then copy it to a path the catalog has never
	// seen, as if it arrived from another host.
	out := filepath.Join(t.TempDir(), "scan.snap")
	if _, err := a.Scan(out, root, snapshot.Options{MaxDepth: -1}); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	foreign := filepath.Join(t.TempDir(), "foreign.snap")
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(foreign, data, 0o644); err != nil {
		t.Fatal(err)
	}

	id, err := a.ArchiveSnapshot(foreign)
	if err != nil {
		t.Fatalf("ArchiveSnapshot() error = %v", err)
	}

	// The foreign snapshot was registered in the catalog from its header.
	recs, err := a.Snapshots(10)
	if err != nil {
		t.Fatalf("Snapshots() error = %v", err)
	}
	found := false
	for _, r := range recs {
		if r.ID == id && r.Path == foreign {
			found = true
		}
	}
	if !found {
		t.Errorf("foreign snapshot %s not registered in catalog", id)
	}
}

func TestApp_FetchUnknownID(t *testing.T) {
	a, _ := newTestApp(t, "Fetch")

	dest := filepath.Join(t.TempDir(), "dest.snap")
	if err := a.FetchSnapshot("no-such-id", dest); err == nil {
		t.Error("FetchSnapshot() expected error for unknown ID")
	}
}
