package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"dirsnap/internal/model"
)

// Options controls a single scan performed by Writer.Write.
type Options struct {
	// Exclude holds exclusion rules, either exact paths or glob patterns,
	// evaluated in order with first match winning.
	Exclude []string

	// MaxDepth limits recursion: an entry at depth d is always recorded,
	// but a directory's children are visited only while their depth would
	// not exceed MaxDepth. Negative means unbounded.
	MaxDepth int

	// MachineID identifies the producing host. Empty defaults to "unknown".
	MachineID string

	// Metadata is merged into the header record. Reserved header keys win
	// on collision.
	Metadata map[string]string
}

// Writer serializes the state of a directory tree into a snapshot file:
// one header line, one line per visited entry in depth-first order, and a
// terminal footer line.
type Writer struct {
	fsmgr  FilesystemManager
	logger Logger
	clock  Clock
}

// NewWriter creates a Writer with the provided collaborators.
func NewWriter(fsmgr FilesystemManager, logger Logger, clock Clock) *Writer {
	return &Writer{fsmgr: fsmgr, logger: logger, clock: clock}
}

// Write scans rootDir and writes a snapshot to outputPath, truncating any
// existing file. The header is written before traversal begins, so its
// createdAt reflects scan start. A fatal traversal error is recorded as an
// error footer and returned; the file on disk still carries a valid header
// and terminal footer so downstream validators detect the incomplete
// snapshot deterministically.
func (w *Writer) Write(outputPath, rootDir string, opts Options) error {
	absRoot, err := w.fsmgr.Resolve(rootDir)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}
	rootInfo, err := w.fsmgr.Stat(absRoot)
	if err != nil {
		return fmt.Errorf("stat root: %w", err)
	}
	if !rootInfo.IsDir() {
		return fmt.Errorf("root is not a directory: %s", absRoot)
	}

	excl, err := NewExcludeMatcher(opts.Exclude)
	if err != nil {
		return fmt.Errorf("parsing exclude rules: %w", err)
	}

	machineID := opts.MachineID
	if machineID == "" {
		machineID = model.DefaultMachineID
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()
	bw := bufio.NewWriter(out)

	header := &model.Header{
		Version:   model.FormatVersion,
		Type:      model.SnapshotType,
		CreatedAt: w.clock.Now().UTC().Truncate(time.Millisecond),
		MachineID: machineID,
		RootPath:  filepath.ToSlash(absRoot),
		Metadata:  opts.Metadata,
	}
	if err := writeLine(bw, encodeHeader, header); err != nil {
		return err
	}

	var walkErr error
	if excl.Match(header.RootPath) {
		// Excluded root: header and footer only.
		w.logger.Info("scan root excluded, recording empty snapshot", "root", header.RootPath)
	} else {
		walkErr = w.walkDir(bw, absRoot, 0, opts.MaxDepth, excl)
	}

	footer := &model.Footer{Status: model.StatusSuccess}
	if walkErr != nil {
		footer.Status = model.StatusError
		footer.Message = walkErr.Error()
		w.logger.Error("scan aborted", "root", header.RootPath, "error", walkErr)
	}
	if err := writeLine(bw, encodeFooter, footer); err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing snapshot: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}

	if walkErr != nil {
		return fmt.Errorf("scanning %s: %w", header.RootPath, walkErr)
	}
	w.logger.Info("scan complete", "root", header.RootPath, "output", outputPath)
	return nil
}

// walkDir visits the children of dir depth-first. Each child's entry line
// is emitted before recursing into it. Any error is fatal to the walk.
func (w *Writer) walkDir(out io.Writer, dir string, depth, maxDepth int, excl *ExcludeMatcher) error {
	children, err := w.fsmgr.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", dir, err)
	}

	for _, child := range children {
		childPath := filepath.Join(dir, child.Name())
		norm := filepath.ToSlash(childPath)
		if excl.Match(norm) {
			w.logger.Debug("excluded", "path", norm)
			continue
		}

		info, err := child.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", norm, err)
		}
		ctime, mtime, err := w.fsmgr.FileTimes(info)
		if err != nil {
			return fmt.Errorf("file times for %s: %w", norm, err)
		}

		entry := &model.FileEntry{
			Path:  norm,
			CTime: ctime.UTC().Truncate(time.Millisecond),
			MTime: mtime.UTC().Truncate(time.Millisecond),
			Depth: depth,
		}

		switch {
		case child.IsDir():
			entry.Type = model.TypeDirectory
			if err := writeLine(out, encodeEntry, entry); err != nil {
				return err
			}
			if maxDepth < 0 || depth+1 <= maxDepth {
				if err := w.walkDir(out, childPath, depth+1, maxDepth, excl); err != nil {
					return err
				}
			}
		case child.Type().IsRegular():
			entry.Type = model.TypeFile
			size, sum, err := w.fsmgr.Digest(childPath)
			if err != nil {
				return fmt.Errorf("hashing %s: %w", norm, err)
			}
			entry.File = &model.FileData{Size: size, SHA256: sum}
			if err := writeLine(out, encodeEntry, entry); err != nil {
				return err
			}
		default:
			// Symlinks, devices, pipes, sockets are not snapshotted.
			w.logger.Debug("skipping non-regular entry", "path", norm)
		}
	}

	return nil
}

// writeLine encodes one record and appends it as a newline-terminated line.
func writeLine[T any](out io.Writer, encode func(T) ([]byte, error), rec T) error {
	data, err := encode(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	if _, err := out.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}
