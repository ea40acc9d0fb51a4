package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSystemArchive is a filesystem-based implementation of the Archive
// interface. Snapshot files are stored flat under the archive root:
//
//	<root>/
//	  <id>.snap
type FileSystemArchive struct {
	root string
}

// NewFileSystemArchive creates a new filesystem archive rooted at the given
// path, creating the directory if needed.
func NewFileSystemArchive(root string) (*FileSystemArchive, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &FileSystemArchive{root: root}, nil
}

func (a *FileSystemArchive) snapPath(id string) string {
	return filepath.Join(a.root, id+".snap")
}

// Put stores a snapshot file under the given ID using an atomic write
// (temp file + rename).
func (a *FileSystemArchive) Put(id string, r io.Reader, size int64) error {
	destPath := a.snapPath(id)

	// Create temp file in the same directory to ensure atomic rename works
	tmpFile, err := os.CreateTemp(a.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on failure
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Get retrieves an archived snapshot by ID and writes it to w.
func (a *FileSystemArchive) Get(id string, w io.Writer) error {
	f, err := os.Open(a.snapPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("snapshot not archived: %s", id)
		}
		return fmt.Errorf("failed to open archived snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read archived snapshot: %w", err)
	}
	return nil
}

// Exists reports whether an archived snapshot with the given ID is present.
func (a *FileSystemArchive) Exists(id string) (bool, error) {
	_, err := os.Stat(a.snapPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat archived snapshot: %w", err)
	}
	return true, nil
}

// ValidateSetup verifies that the archive root is an accessible directory.
func (a *FileSystemArchive) ValidateSetup() error {
	info, err := os.Stat(a.root)
	if err != nil {
		return fmt.Errorf("archive root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("archive root is not a directory: %s", a.root)
	}
	return nil
}

// Compile-time check that FileSystemArchive implements the Archive interface
var _ Archive = (*FileSystemArchive)(nil)
