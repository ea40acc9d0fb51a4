package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"dirsnap/internal/snapshot"
)

// OSFilesystemManager is the real filesystem implementation of
// snapshot.FilesystemManager. It performs actual filesystem operations
// using the os package.
type OSFilesystemManager struct{}

// NewOSFilesystemManager creates a filesystem manager that operates on the
// real filesystem.
func NewOSFilesystemManager() *OSFilesystemManager {
	return &OSFilesystemManager{}
}

// Resolve validates a raw path and returns its absolute form.
func (m *OSFilesystemManager) Resolve(rawPath string) (string, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return "", fmt.Errorf("stat path: %w", err)
	}
	return absPath, nil
}

// ReadDir lists the direct children of dir, sorted by name.
func (m *OSFilesystemManager) ReadDir(dir string) ([]fs.DirEntry, error) {
	return os.ReadDir(dir)
}

// Stat returns fresh file info for a path.
func (m *OSFilesystemManager) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// FileTimes extracts the metadata-change time from platform stat data and
// the modification time from the FileInfo itself.
func (m *OSFilesystemManager) FileTimes(info fs.FileInfo) (time.Time, time.Time, error) {
	ctime, err := changeTime(info)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return ctime, info.ModTime(), nil
}

// Digest reads the whole file sequentially, returning its byte count and
// lowercase hex SHA-256 digest. This is the single most expensive step of
// a scan.
func (m *OSFilesystemManager) Digest(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return 0, "", fmt.Errorf("reading file: %w", err)
	}
	return size, hex.EncodeToString(h.Sum(nil)), nil
}

// Compile-time check that OSFilesystemManager implements the collaborator
// interface the writer consumes.
var _ snapshot.FilesystemManager = (*OSFilesystemManager)(nil)
