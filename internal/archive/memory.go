package archive

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// MemoryArchive is an in-memory implementation of the Archive interface,
// useful for testing. It is safe for concurrent use.
type MemoryArchive struct {
	snapshots map[string][]byte
	mu        sync.RWMutex
}

// NewMemoryArchive creates a new in-memory archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{snapshots: make(map[string][]byte)}
}

// Put stores a snapshot under the given ID.
func (m *MemoryArchive) Put(id string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[id] = data
	return nil
}

// Get retrieves a snapshot by ID and writes it to w.
func (m *MemoryArchive) Get(id string, w io.Writer) error {
	m.mu.RLock()
	data, ok := m.snapshots[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("snapshot not archived: %s", id)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Exists reports whether a snapshot with the given ID is present.
func (m *MemoryArchive) Exists(id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.snapshots[id]
	return ok, nil
}

// ValidateSetup always succeeds for the in-memory archive.
func (m *MemoryArchive) ValidateSetup() error { return nil }

// Compile-time check that MemoryArchive implements the Archive interface
var _ Archive = (*MemoryArchive)(nil)
