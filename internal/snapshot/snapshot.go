// Package snapshot implements the directory snapshot file format: a
// line-oriented record of a directory tree's state at a point in time,
// plus validation, parsing, and comparison of such records.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"

	"dirsnap/internal/model"
)

// ErrAlreadyOpened is returned when Open is called on an opened Snapshot.
// Re-opening is a programming error, not a recoverable condition.
var ErrAlreadyOpened = errors.New("snapshot already opened")

// ErrMalformed marks a snapshot that violates the line-format grammar or
// record ordering.
var ErrMalformed = errors.New("malformed snapshot")

// ErrIncomplete marks a snapshot that is structurally well-formed but whose
// footer recorded a failed scan.
var ErrIncomplete = errors.New("incomplete snapshot")

// Snapshot is a queryable in-memory view of one snapshot file. It is
// constructed bound to a source location, begins unopened, and becomes
// read-only once Open succeeds.
type Snapshot struct {
	source  string
	opened  bool
	header  *model.Header
	entries map[string]*model.FileEntry
	footer  *model.Footer
}

// New creates an unopened Snapshot bound to the given source file.
func New(source string) *Snapshot {
	return &Snapshot{source: source}
}

// Open validates the source file and then fully parses it. It may be called
// exactly once; a second call returns ErrAlreadyOpened. No partially parsed
// state is retained when the snapshot is invalid.
func (s *Snapshot) Open() error {
	if s.opened {
		return ErrAlreadyOpened
	}

	f, err := os.Open(s.source)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	res := ValidateStream(f)
	if !res.Valid {
		if res.Incomplete {
			return fmt.Errorf("%w: %s", ErrIncomplete, res.Reason)
		}
		return fmt.Errorf("%w: %s", ErrMalformed, res.Reason)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding snapshot: %w", err)
	}
	parsed, err := readStream(f)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	s.header = parsed.header
	s.entries = parsed.entries
	s.footer = parsed.footer
	s.opened = true
	return nil
}

// Opened reports whether Open has succeeded.
func (s *Snapshot) Opened() bool { return s.opened }

// Source returns the file path this snapshot was constructed with.
func (s *Snapshot) Source() string { return s.source }

// Header returns the snapshot header. Panics if the snapshot is unopened.
func (s *Snapshot) Header() *model.Header {
	s.mustBeOpened()
	return s.header
}

// Entries returns the path-keyed entry table. The map must be treated as
// read-only. Panics if the snapshot is unopened.
func (s *Snapshot) Entries() map[string]*model.FileEntry {
	s.mustBeOpened()
	return s.entries
}

// Entry looks up one entry by its absolute, slash-normalized path.
// Panics if the snapshot is unopened.
func (s *Snapshot) Entry(path string) (*model.FileEntry, bool) {
	s.mustBeOpened()
	e, ok := s.entries[path]
	return e, ok
}

// Len returns the number of entries. Panics if the snapshot is unopened.
func (s *Snapshot) Len() int {
	s.mustBeOpened()
	return len(s.entries)
}

// Footer returns the snapshot footer. Panics if the snapshot is unopened.
func (s *Snapshot) Footer() *model.Footer {
	s.mustBeOpened()
	return s.footer
}

// mustBeOpened guards accessors: using an unopened snapshot is a programmer
// error surfaced immediately, not a recoverable condition.
func (s *Snapshot) mustBeOpened() {
	if !s.opened {
		panic("snapshot: accessed before Open")
	}
}
