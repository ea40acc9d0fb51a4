package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dirsnap/internal/catalog/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteCatalog implements the Catalog interface using SQLite.
type SQLiteCatalog struct {
	db   *sql.DB
	path string
}

// NewSQLiteCatalog opens (creating if necessary) a catalog database and
// migrates it to the latest schema. path can be a file path or ":memory:"
// for an in-memory database.
func NewSQLiteCatalog(path string) (*SQLiteCatalog, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating catalog schema: %w", err)
	}

	return &SQLiteCatalog{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite database connection with
// appropriate PRAGMAs. This is exported for use in tools and tests that
// need a properly configured SQLite connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Operation tracking

func (c *SQLiteCatalog) CreateOperation(operation, parameters string) (*Operation, error) {
	op := &Operation{
		Operation:  operation,
		Parameters: parameters,
		StartedAt:  time.Now(),
		Status:     StatusSuccess,
	}
	res, err := c.db.Exec(
		`INSERT INTO operations (operation, parameters, started_at, status) VALUES (?, ?, ?, ?)`,
		op.Operation, op.Parameters, op.StartedAt, op.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	if op.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("reading operation id: %w", err)
	}
	return op, nil
}

func (c *SQLiteCatalog) FinishOperation(id int64, status string) error {
	_, err := c.db.Exec(
		`UPDATE operations SET finished_at = ?, status = ? WHERE id = ?`,
		time.Now(), status, id,
	)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

func (c *SQLiteCatalog) ListOperations(limit int) ([]*Operation, error) {
	rows, err := c.db.Query(
		`SELECT id, operation, parameters, started_at, finished_at, status
		 FROM operations ORDER BY id DESC LIMIT ?`, int64(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*Operation
	for rows.Next() {
		op := &Operation{}
		if err := rows.Scan(&op.ID, &op.Operation, &op.Parameters, &op.StartedAt, &op.FinishedAt, &op.Status); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

// Snapshot records

func (c *SQLiteCatalog) RecordSnapshot(rec *SnapshotRecord) error {
	_, err := c.db.Exec(
		`INSERT INTO snapshots (id, path, root_path, machine_id, created_at, entry_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Path, rec.RootPath, rec.MachineID, rec.CreatedAt, rec.EntryCount,
	)
	if err != nil {
		return fmt.Errorf("recording snapshot: %w", err)
	}
	return nil
}

func (c *SQLiteCatalog) FindSnapshot(id string) (*SnapshotRecord, error) {
	row := c.db.QueryRow(
		`SELECT id, path, root_path, machine_id, created_at, entry_count
		 FROM snapshots WHERE id = ?`, id,
	)
	return scanSnapshot(row)
}

func (c *SQLiteCatalog) FindSnapshotByPath(path string) (*SnapshotRecord, error) {
	row := c.db.QueryRow(
		`SELECT id, path, root_path, machine_id, created_at, entry_count
		 FROM snapshots WHERE path = ? ORDER BY created_at DESC LIMIT 1`, path,
	)
	return scanSnapshot(row)
}

func scanSnapshot(row *sql.Row) (*SnapshotRecord, error) {
	rec := &SnapshotRecord{}
	err := row.Scan(&rec.ID, &rec.Path, &rec.RootPath, &rec.MachineID, &rec.CreatedAt, &rec.EntryCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding snapshot: %w", err)
	}
	return rec, nil
}

func (c *SQLiteCatalog) ListSnapshots(limit int) ([]*SnapshotRecord, error) {
	rows, err := c.db.Query(
		`SELECT id, path, root_path, machine_id, created_at, entry_count
		 FROM snapshots ORDER BY created_at DESC LIMIT ?`, int64(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var recs []*SnapshotRecord
	for rows.Next() {
		rec := &SnapshotRecord{}
		if err := rows.Scan(&rec.ID, &rec.Path, &rec.RootPath, &rec.MachineID, &rec.CreatedAt, &rec.EntryCount); err != nil {
			return nil, fmt.Errorf("scanning snapshot record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	return recs, nil
}

func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

// Compile-time check that SQLiteCatalog implements the Catalog interface
var _ Catalog = (*SQLiteCatalog)(nil)
