package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"dirsnap/internal/model"
)

// parsedSnapshot is the result of a full parse: header metadata, a
// path-keyed entry table, and the footer.
type parsedSnapshot struct {
	header  *model.Header
	entries map[string]*model.FileEntry
	footer  *model.Footer
}

// readStream fully parses a snapshot by structural discrimination of each
// line. It assumes well-formedness and is always invoked after validation
// succeeds, never as a substitute for it. It still fails when header or
// footer was never observed.
func readStream(r io.Reader) (*parsedSnapshot, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	p := &parsedSnapshot{entries: make(map[string]*model.FileEntry)}
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		kind, raw, err := classifyLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		switch kind {
		case kindHeader:
			header, err := decodeHeader(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			p.header = header
		case kindEntry:
			entry, err := decodeEntry(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			p.entries[entry.Path] = entry
		case kindFooter:
			footer, err := decodeFooter(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			p.footer = footer
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	if p.header == nil {
		return nil, fmt.Errorf("snapshot has no header record")
	}
	if p.footer == nil {
		return nil, fmt.Errorf("snapshot has no footer record")
	}
	return p, nil
}
