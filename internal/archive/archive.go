// Package archive stores finished snapshot files for later retrieval,
// addressed by their catalog snapshot ID. Moving snapshot files between
// hosts out-of-band and fetching them back is the basis of cross-machine
// drift detection.
package archive

import "io"

// Archive is the storage interface for archived snapshot files.
// All operations use io.Reader/io.Writer for streaming so large snapshots
// never have to fit in memory.
type Archive interface {
	// Put stores a snapshot file under the given ID.
	// size is the number of bytes that will be read from r.
	// Storing the same ID twice overwrites the previous copy.
	Put(id string, r io.Reader, size int64) error

	// Get retrieves an archived snapshot by ID and writes it to w.
	Get(id string, w io.Writer) error

	// Exists reports whether an archived snapshot with the given ID is present.
	Exists(id string) (bool, error)

	// ValidateSetup verifies that the archive is accessible and properly
	// configured.
	ValidateSetup() error
}
