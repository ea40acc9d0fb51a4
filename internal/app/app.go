package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dirsnap/internal/archive"
	"dirsnap/internal/catalog"
	"dirsnap/internal/config"
	"dirsnap/internal/fs"
	"dirsnap/internal/model"
	"dirsnap/internal/snapshot"

	"github.com/google/uuid"
)

// App is the application layer between the CLI and the snapshot core.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and manages the catalog lifecycle on Close.
type App struct {
	cfg     *config.Config
	catalog catalog.Catalog
	archive archive.Archive
	fsmgr   snapshot.FilesystemManager
	writer  *snapshot.Writer
	logger  snapshot.Logger
	op      *Operation
	logFile *os.File
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "Scan", "Compare").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	fsmgr := fs.NewOSFilesystemManager()

	cat, err := catalog.NewCatalogFromConfig(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("creating catalog: %w", err)
	}

	arch, err := archive.NewArchiveFromConfig(cfg.Archive)
	if err != nil {
		cat.Close()
		return nil, fmt.Errorf("creating archive: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		cat.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	logger := &slogAdapter{l: slogger}
	writer := snapshot.NewWriter(fsmgr, logger, snapshot.RealClock{})

	return &App{
		cfg:     cfg,
		catalog: cat,
		archive: arch,
		fsmgr:   fsmgr,
		writer:  writer,
		logger:  logger,
		op:      NewOperation(operation, ""),
		logFile: logFile,
	}, nil
}

// persistOperation saves the operation to the catalog, giving it an
// auto-increment ID. This should only be called for catalog-mutating commands.
func (a *App) persistOperation() error {
	if a.op.Persisted() {
		return nil // already persisted
	}
	dbOp, err := a.catalog.CreateOperation(a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

// Scan snapshots rootDir into outputPath and records the result in the
// catalog. Config-level exclude rules apply before any caller-supplied
// ones; the machine ID falls back to the configured one.
func (a *App) Scan(outputPath, rootDir string, opts snapshot.Options) (*catalog.SnapshotRecord, error) {
	if err := a.persistOperation(); err != nil {
		return nil, err
	}

	if opts.MachineID == "" {
		opts.MachineID = a.cfg.MachineID
	}
	opts.Exclude = append(append([]string{}, a.cfg.Scan.Exclude...), opts.Exclude...)

	absOutput, err := filepath.Abs(outputPath)
	if err != nil {
		return nil, fmt.Errorf("resolving output path: %w", err)
	}

	if err := a.writer.Write(absOutput, rootDir, opts); err != nil {
		a.op.Status = catalog.StatusError
		return nil, err
	}

	// Read the snapshot back; this doubles as a self-check of the file we
	// just wrote.
	snap := snapshot.New(absOutput)
	if err := snap.Open(); err != nil {
		a.op.Status = catalog.StatusError
		return nil, fmt.Errorf("verifying written snapshot: %w", err)
	}

	rec := &catalog.SnapshotRecord{
		ID:         uuid.New().String(),
		Path:       absOutput,
		RootPath:   snap.Header().RootPath,
		MachineID:  snap.Header().MachineID,
		CreatedAt:  snap.Header().CreatedAt,
		EntryCount: int64(snap.Len()),
	}
	if err := a.catalog.RecordSnapshot(rec); err != nil {
		a.op.Status = catalog.StatusError
		return nil, err
	}
	return rec, nil
}

// Compare opens both snapshot files and computes their diff. The two opens
// run concurrently; they share no mutable state.
func (a *App) Compare(pathA, pathB string) (*model.Report, error) {
	snapA := snapshot.New(pathA)
	snapB := snapshot.New(pathB)

	errs := make(chan error, 2)
	go func() { errs <- wrapOpen(pathA, snapA.Open()) }()
	go func() { errs <- wrapOpen(pathB, snapB.Open()) }()

	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	return snapshot.Compare(snapA, snapB)
}

func wrapOpen(path string, err error) error {
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	return nil
}

// Validate checks the snapshot file at the given path.
func (a *App) Validate(rawPath string) (bool, error) {
	return snapshot.Validate(rawPath)
}

// ArchiveSnapshot stores a snapshot file in the archive, keyed by its
// catalog ID. Snapshots produced on another host (no catalog record yet)
// are registered first. Returns the snapshot ID.
func (a *App) ArchiveSnapshot(rawPath string) (string, error) {
	if err := a.persistOperation(); err != nil {
		return "", err
	}

	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	rec, err := a.catalog.FindSnapshotByPath(absPath)
	if err != nil {
		return "", err
	}
	if rec == nil {
		// Foreign snapshot: register it from its own header.
		snap := snapshot.New(absPath)
		if err := snap.Open(); err != nil {
			return "", fmt.Errorf("opening snapshot: %w", err)
		}
		rec = &catalog.SnapshotRecord{
			ID:         uuid.New().String(),
			Path:       absPath,
			RootPath:   snap.Header().RootPath,
			MachineID:  snap.Header().MachineID,
			CreatedAt:  snap.Header().CreatedAt,
			EntryCount: int64(snap.Len()),
		}
		if err := a.catalog.RecordSnapshot(rec); err != nil {
			return "", err
		}
	}

	f, err := os.Open(absPath)
	if err != nil {
		return "", fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat snapshot file: %w", err)
	}

	if err := a.archive.Put(rec.ID, f, info.Size()); err != nil {
		a.op.Status = catalog.StatusError
		return "", fmt.Errorf("archiving snapshot: %w", err)
	}

	a.logger.Info("snapshot archived", "id", rec.ID, "path", absPath)
	return rec.ID, nil
}

// FetchSnapshot retrieves an archived snapshot by ID into destPath.
func (a *App) FetchSnapshot(id, destPath string) error {
	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating destination file: %w", err)
	}
	defer f.Close()

	if err := a.archive.Get(id, f); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing destination file: %w", err)
	}

	a.logger.Info("snapshot fetched", "id", id, "dest", destPath)
	return nil
}

// History returns the most recent catalog operations.
func (a *App) History(limit int) ([]*catalog.Operation, error) {
	return a.catalog.ListOperations(limit)
}

// Snapshots returns the most recent snapshot records.
func (a *App) Snapshots(limit int) ([]*catalog.SnapshotRecord, error) {
	return a.catalog.ListSnapshots(limit)
}

// Close finalizes the operation record and closes all resources.
func (a *App) Close() error {
	var firstErr error

	if a.op.Persisted() {
		if err := a.catalog.FinishOperation(a.op.ID, a.op.Status); err != nil {
			firstErr = fmt.Errorf("finishing operation: %w", err)
		}
	}

	if err := a.catalog.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing catalog: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
