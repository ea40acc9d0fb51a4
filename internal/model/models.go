package model

import "time"

// SnapshotType is the discriminator written into every snapshot header.
const SnapshotType = "dir-snapshot"

// FormatVersion is the semantic version of the snapshot file format.
const FormatVersion = "1.0.0"

// DefaultMachineID is used when the caller does not identify the producing host.
const DefaultMachineID = "unknown"

// EntryType distinguishes files from directories in a snapshot.
type EntryType string

const (
	TypeFile      EntryType = "file"
	TypeDirectory EntryType = "directory"
)

// Header is the first record of every snapshot. It is immutable once written.
type Header struct {
	Version   string
	Type      string
	CreatedAt time.Time // UTC, millisecond precision
	MachineID string
	RootPath  string // absolute, forward-slash normalized

	// Metadata holds caller-supplied key/value pairs merged into the header
	// record at creation time. Reserved header keys win on collision.
	Metadata map[string]string
}

// FileData holds the content attributes that only file entries carry.
// Directory entries have no FileData; its absence is meaningful and
// round-trips as omitted fields, never as zero values.
type FileData struct {
	Size   int64
	SHA256 string // lowercase hex digest of the full content
}

// FileEntry describes one filesystem object at snapshot time.
// Path is absolute, forward-slash normalized, and unique within a snapshot.
type FileEntry struct {
	Path  string
	Type  EntryType
	CTime time.Time
	MTime time.Time
	Depth int       // 0 for direct children of the scan root
	File  *FileData // nil unless Type == TypeFile
}

// IsFile reports whether the entry describes a regular file.
func (e *FileEntry) IsFile() bool { return e.Type == TypeFile }

// Status is the terminal outcome recorded in a snapshot footer.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Footer is the last record of every snapshot. A snapshot whose footer
// status is not success is semantically incomplete even when every line
// parses cleanly.
type Footer struct {
	Status  Status
	Message string // only set when Status == StatusError
}

// IsSuccess reports whether the snapshot completed its scan.
func (f *Footer) IsSuccess() bool { return f.Status == StatusSuccess }

// Period is the time window covered by a comparison: the older snapshot's
// CreatedAt through the newer snapshot's CreatedAt.
type Period struct {
	Start time.Time
	End   time.Time
}

// MovedPair records a file that disappeared at Src and reappeared at Dst
// with identical size and content digest.
type MovedPair struct {
	Src *FileEntry
	Dst *FileEntry
}

// ChangedPair records the old and new state of an entry present in both
// snapshots.
type ChangedPair struct {
	OldValue *FileEntry
	NewValue *FileEntry
}

// Report is the comparator's output. Every entry that differs between the
// two snapshots is referenced in exactly one of the five lists; unchanged
// entries are not referenced at all. The FileEntry pointers alias the
// source snapshots' read-only entries.
type Report struct {
	Period          Period
	Added           []*FileEntry
	Deleted         []*FileEntry
	Moved           []MovedPair
	MetadataChanged []ChangedPair
	ContentChanged  []ChangedPair
}
