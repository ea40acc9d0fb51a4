package snapshot

import (
	"errors"
	"fmt"
	"sort"

	"dirsnap/internal/model"
)

// ErrNotOpened is returned by Compare when either input has not been opened.
var ErrNotOpened = errors.New("snapshot not opened")

// ErrRootMismatch is returned when two snapshots do not describe the same
// logical root; comparing different trees is meaningless.
var ErrRootMismatch = errors.New("snapshots have different root paths")

// ErrSameTimestamp is returned when two snapshots carry the same createdAt;
// comparing a snapshot to itself is meaningless.
var ErrSameTimestamp = errors.New("snapshots have identical timestamps")

// Compare computes a structured diff between two opened snapshots of the
// same logical root. The inputs are ordered by createdAt, never by argument
// position, so Compare(a, b) and Compare(b, a) yield the same report.
//
// Each entry receives at most one classification, checked in strict
// priority order: type change (old deleted, new added), then content
// (sha256 authoritative, size as fallback), then ctime, then mtime. Entries
// identical in every compared field are not referenced at all.
func Compare(a, b *Snapshot) (*model.Report, error) {
	if !a.Opened() || !b.Opened() {
		return nil, ErrNotOpened
	}

	ha, hb := a.Header(), b.Header()
	if ha.RootPath != hb.RootPath {
		return nil, fmt.Errorf("%w: %q vs %q", ErrRootMismatch, ha.RootPath, hb.RootPath)
	}
	if ha.CreatedAt.Equal(hb.CreatedAt) {
		return nil, fmt.Errorf("%w: %s", ErrSameTimestamp, ha.CreatedAt)
	}

	older, newer := a, b
	if hb.CreatedAt.Before(ha.CreatedAt) {
		older, newer = b, a
	}

	report := &model.Report{
		Period: model.Period{
			Start: older.Header().CreatedAt,
			End:   newer.Header().CreatedAt,
		},
	}

	// Entry tables are hash maps with no meaningful order; iterate in
	// sorted path order so reports are stable across runs.
	for _, path := range sortedPaths(newer.Entries()) {
		newEntry := newer.Entries()[path]
		oldEntry, ok := older.Entries()[path]
		switch {
		case !ok:
			report.Added = append(report.Added, newEntry)
		case oldEntry.Type != newEntry.Type:
			// A type change is a delete plus an add, not a metadata change.
			report.Deleted = append(report.Deleted, oldEntry)
			report.Added = append(report.Added, newEntry)
		case newEntry.IsFile() && contentDiffers(oldEntry, newEntry):
			report.ContentChanged = append(report.ContentChanged,
				model.ChangedPair{OldValue: oldEntry, NewValue: newEntry})
		case !oldEntry.CTime.Equal(newEntry.CTime) || !oldEntry.MTime.Equal(newEntry.MTime):
			report.MetadataChanged = append(report.MetadataChanged,
				model.ChangedPair{OldValue: oldEntry, NewValue: newEntry})
		}
	}

	for _, path := range sortedPaths(older.Entries()) {
		if _, ok := newer.Entries()[path]; !ok {
			report.Deleted = append(report.Deleted, older.Entries()[path])
		}
	}

	detectMoves(report)
	return report, nil
}

// contentDiffers reports whether two file entries differ in content. The
// digest is authoritative; byte size is a fallback signal for entries whose
// digests are absent. The comparison mirrors the hash-then-size priority:
// unequal digests (including present-vs-absent) decide immediately, equal
// digests fall through to the size check.
func contentDiffers(oldEntry, newEntry *model.FileEntry) bool {
	oldSize, oldSum := fileSignature(oldEntry)
	newSize, newSum := fileSignature(newEntry)
	if oldSum != newSum {
		return true
	}
	return oldSize != newSize
}

// fileSignature extracts (size, sha256) with sentinels for an absent
// content block, so absence compares unequal to any real value.
func fileSignature(e *model.FileEntry) (int64, string) {
	if e.File == nil {
		return -1, ""
	}
	return e.File.Size, e.File.SHA256
}

// moveKey identifies file content for move matching.
type moveKey struct {
	size int64
	sum  string
}

// detectMoves reclassifies deleted/added file pairs with equal size and
// equal sha256 as moves. Added entries are indexed by content key, each
// bucket a FIFO queue in the added list's original order; deleted entries
// probe once each. Ties (identical content duplicated across a rename) are
// broken by the added list's original order, and a matched entry is retired
// so nothing is moved twice.
func detectMoves(report *model.Report) {
	buckets := make(map[moveKey][]int)
	for i, added := range report.Added {
		if !added.IsFile() || added.File == nil || added.File.SHA256 == "" {
			continue
		}
		k := moveKey{size: added.File.Size, sum: added.File.SHA256}
		buckets[k] = append(buckets[k], i)
	}
	if len(buckets) == 0 {
		return
	}

	movedAdded := make(map[int]bool)
	var remainingDeleted []*model.FileEntry

	for _, deleted := range report.Deleted {
		if deleted.IsFile() && deleted.File != nil && deleted.File.SHA256 != "" {
			k := moveKey{size: deleted.File.Size, sum: deleted.File.SHA256}
			if queue := buckets[k]; len(queue) > 0 {
				idx := queue[0]
				buckets[k] = queue[1:]
				movedAdded[idx] = true
				report.Moved = append(report.Moved, model.MovedPair{
					Src: deleted,
					Dst: report.Added[idx],
				})
				continue
			}
		}
		remainingDeleted = append(remainingDeleted, deleted)
	}

	if len(movedAdded) == 0 {
		return
	}

	var remainingAdded []*model.FileEntry
	for i, added := range report.Added {
		if !movedAdded[i] {
			remainingAdded = append(remainingAdded, added)
		}
	}
	report.Added = remainingAdded
	report.Deleted = remainingDeleted
}

func sortedPaths(entries map[string]*model.FileEntry) []string {
	paths := make([]string, 0, len(entries))
	for p := range entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
