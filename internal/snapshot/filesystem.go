package snapshot

import (
	"io/fs"
	"time"
)

// FilesystemManager is the traversal and hashing collaborator the writer
// consumes. It abstracts file access to enable testing without touching
// the real filesystem.
type FilesystemManager interface {
	// Resolve validates a raw path and returns its absolute form using
	// native separators. The path must exist.
	Resolve(rawPath string) (string, error)

	// ReadDir lists the direct children of a directory, sorted by name.
	ReadDir(dir string) ([]fs.DirEntry, error)

	// Stat returns fresh file info for a path.
	Stat(path string) (fs.FileInfo, error)

	// FileTimes extracts the metadata-change and modification times from
	// a FileInfo.
	FileTimes(info fs.FileInfo) (ctime, mtime time.Time, err error)

	// Digest reads the whole file sequentially and returns its byte count
	// and lowercase hex SHA-256 digest.
	Digest(path string) (size int64, sha256Hex string, err error)
}
