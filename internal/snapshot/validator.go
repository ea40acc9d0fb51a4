package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineSize bounds a single snapshot line. Paths and metadata are small;
// 1 MiB leaves generous headroom.
const maxLineSize = 1 << 20

// validatorState is the position of the streaming validator within the
// line-format grammar.
type validatorState int

const (
	expectHeader validatorState = iota
	expectEntryOrFooter
	expectNothing
)

// ValidationResult is the internal outcome of a validation pass. The public
// contract collapses it to a boolean, but malformed (grammar/ordering
// violation) and incomplete (well-formed with an error footer) are kept
// distinct for diagnostics.
type ValidationResult struct {
	Valid      bool
	Malformed  bool
	Incomplete bool
	Reason     string
}

func malformed(format string, args ...any) *ValidationResult {
	return &ValidationResult{Malformed: true, Reason: fmt.Sprintf(format, args...)}
}

// ValidateStream checks structural well-formedness of a snapshot in a
// single forward pass without materializing any content. Grammar:
// header line, zero or more entry lines, exactly one footer line, nothing
// but blank lines after.
func ValidateStream(r io.Reader) *ValidationResult {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	state := expectHeader
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		switch state {
		case expectHeader:
			kind, raw, err := classifyLine(line)
			if err != nil {
				return malformed("line %d: %v", lineNo, err)
			}
			if kind != kindHeader {
				return malformed("line %d: expected header record", lineNo)
			}
			if _, err := decodeHeader(raw); err != nil {
				return malformed("line %d: %v", lineNo, err)
			}
			state = expectEntryOrFooter

		case expectEntryOrFooter:
			kind, _, err := classifyLine(line)
			if err != nil {
				return malformed("line %d: %v", lineNo, err)
			}
			switch kind {
			case kindEntry:
				if _, err := decodeEntry(line); err != nil {
					return malformed("line %d: %v", lineNo, err)
				}
			case kindFooter:
				footer, err := decodeFooter(line)
				if err != nil {
					return malformed("line %d: %v", lineNo, err)
				}
				state = expectNothing
				if !footer.IsSuccess() {
					// Structurally complete, semantically incomplete. Any
					// trailing garbage would make it malformed instead, so
					// keep scanning.
					if res := scanTrailing(scanner, lineNo); res != nil {
						return res
					}
					return &ValidationResult{Incomplete: true, Reason: footer.Message}
				}
			default:
				return malformed("line %d: expected entry or footer record", lineNo)
			}

		case expectNothing:
			return malformed("line %d: content after footer", lineNo)
		}
	}

	if err := scanner.Err(); err != nil {
		return malformed("reading snapshot: %v", err)
	}
	switch state {
	case expectHeader:
		return malformed("empty snapshot: no header record")
	case expectEntryOrFooter:
		return malformed("snapshot ended before footer record")
	}
	return &ValidationResult{Valid: true}
}

// scanTrailing consumes the remainder of the stream after an error footer,
// reporting any non-blank line as trailing garbage.
func scanTrailing(scanner *bufio.Scanner, lineNo int) *ValidationResult {
	for scanner.Scan() {
		lineNo++
		if len(strings.TrimSpace(scanner.Text())) == 0 {
			continue
		}
		return malformed("line %d: content after footer", lineNo)
	}
	if err := scanner.Err(); err != nil {
		return malformed("reading snapshot: %v", err)
	}
	return nil
}

// Validate checks the snapshot file at path. The boolean reports structural
// and semantic validity; the error is reserved for unrelated I/O failures
// such as a missing file, never for an invalid snapshot.
func Validate(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	return ValidateStream(f).Valid, nil
}
