// Package catalog keeps local bookkeeping of dirsnap activity: which CLI
// operations ran and which snapshot files they produced. It never stores
// snapshot contents; the snapshot file itself is the durable record.
package catalog

import (
	"database/sql"
	"time"
)

// Operation statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Operation tracks one CLI operation.
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Status     string
}

// SnapshotRecord describes one snapshot file known to this host.
type SnapshotRecord struct {
	ID         string // UUID
	Path       string // where the snapshot file was written
	RootPath   string // the scanned root, slash-normalized
	MachineID  string
	CreatedAt  time.Time
	EntryCount int64
}

// Catalog is the persistence interface for operation and snapshot
// bookkeeping.
type Catalog interface {
	// CreateOperation inserts a new operation with status "success" and
	// returns it with its auto-increment ID assigned.
	CreateOperation(operation, parameters string) (*Operation, error)

	// FinishOperation records the final status and finish time.
	FinishOperation(id int64, status string) error

	// ListOperations returns the most recent operations, newest first.
	ListOperations(limit int) ([]*Operation, error)

	// RecordSnapshot inserts a snapshot record.
	RecordSnapshot(rec *SnapshotRecord) error

	// FindSnapshot returns the record with the given ID, or nil if absent.
	FindSnapshot(id string) (*SnapshotRecord, error)

	// FindSnapshotByPath returns the most recent record for the given
	// snapshot file path, or nil if absent.
	FindSnapshotByPath(path string) (*SnapshotRecord, error)

	// ListSnapshots returns the most recent snapshot records, newest first.
	ListSnapshots(limit int) ([]*SnapshotRecord, error)

	// Close releases the underlying store.
	Close() error
}
