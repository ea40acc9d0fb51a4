package testutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"dirsnap/internal/snapshot"
)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
	ChangeTime  time.Time
	IsDirectory bool
}

// MockFilesystemManager is an in-memory filesystem for testing the writer
// without touching disk. Paths are absolute with forward slashes.
type MockFilesystemManager struct {
	files      map[string]*MockFile
	digestErrs map[string]error
}

// NewMockFilesystemManager creates a new mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files:      make(map[string]*MockFile),
		digestErrs: make(map[string]error),
	}
}

// AddFile adds a file to the mock filesystem.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	now := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	m.files[path] = &MockFile{
		Content:     content,
		Permissions: 0644,
		ModTime:     now,
		ChangeTime:  now,
	}
}

// AddDirectory adds a directory to the mock filesystem.
func (m *MockFilesystemManager) AddDirectory(path string) {
	now := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	m.files[path] = &MockFile{
		Permissions: 0755,
		ModTime:     now,
		ChangeTime:  now,
		IsDirectory: true,
	}
}

// SetTimes overrides the change and modification times of an existing path.
func (m *MockFilesystemManager) SetTimes(path string, ctime, mtime time.Time) {
	if f, ok := m.files[path]; ok {
		f.ChangeTime = ctime
		f.ModTime = mtime
	}
}

// FailDigest makes Digest return the given error for path.
func (m *MockFilesystemManager) FailDigest(path string, err error) {
	m.digestErrs[path] = err
}

func (m *MockFilesystemManager) Resolve(rawPath string) (string, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return "", err
	}
	if _, ok := m.files[absPath]; !ok {
		return "", fmt.Errorf("file not found: %s", absPath)
	}
	return absPath, nil
}

func (m *MockFilesystemManager) ReadDir(dir string) ([]fs.DirEntry, error) {
	f, ok := m.files[dir]
	if !ok {
		return nil, fmt.Errorf("directory not found: %s", dir)
	}
	if !f.IsDirectory {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	var names []string
	for p := range m.files {
		if filepath.Dir(p) == dir {
			names = append(names, filepath.Base(p))
		}
	}
	sort.Strings(names)

	entries := make([]fs.DirEntry, 0, len(names))
	for _, name := range names {
		child := m.files[filepath.Join(dir, name)]
		entries = append(entries, &mockDirEntry{name: name, file: child})
	}
	return entries, nil
}

func (m *MockFilesystemManager) Stat(path string) (fs.FileInfo, error) {
	f, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return newMockFileInfo(filepath.Base(path), f), nil
}

func (m *MockFilesystemManager) FileTimes(info fs.FileInfo) (time.Time, time.Time, error) {
	mf, ok := info.Sys().(*MockFile)
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("cannot extract stat data: expected *MockFile, got %T", info.Sys())
	}
	return mf.ChangeTime, mf.ModTime, nil
}

func (m *MockFilesystemManager) Digest(path string) (int64, string, error) {
	if err := m.digestErrs[path]; err != nil {
		return 0, "", err
	}
	f, ok := m.files[path]
	if !ok {
		return 0, "", fmt.Errorf("file not found: %s", path)
	}
	if f.IsDirectory {
		return 0, "", fmt.Errorf("cannot hash directory: %s", path)
	}

	h := sha256.New()
	size, err := io.Copy(h, bytes.NewReader(f.Content))
	if err != nil {
		return 0, "", err
	}
	return size, hex.EncodeToString(h.Sum(nil)), nil
}

// mockFileInfo implements fs.FileInfo.
type mockFileInfo struct {
	name string
	file *MockFile
}

func newMockFileInfo(name string, file *MockFile) *mockFileInfo {
	return &mockFileInfo{name: name, file: file}
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return int64(len(m.file.Content)) }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.file.Permissions }
func (m *mockFileInfo) ModTime() time.Time { return m.file.ModTime }
func (m *mockFileInfo) IsDir() bool        { return m.file.IsDirectory }
func (m *mockFileInfo) Sys() any           { return m.file }

// mockDirEntry implements fs.DirEntry.
type mockDirEntry struct {
	name string
	file *MockFile
}

func (d *mockDirEntry) Name() string { return d.name }
func (d *mockDirEntry) IsDir() bool  { return d.file.IsDirectory }

func (d *mockDirEntry) Type() fs.FileMode {
	if d.file.IsDirectory {
		return fs.ModeDir
	}
	return 0
}

func (d *mockDirEntry) Info() (fs.FileInfo, error) {
	return newMockFileInfo(d.name, d.file), nil
}

// Compile-time check
var _ snapshot.FilesystemManager = (*MockFilesystemManager)(nil)
