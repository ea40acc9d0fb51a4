package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"dirsnap/internal/model"
)

// timeLayout is the wire format for all timestamps: ISO-8601, UTC,
// millisecond precision.
const timeLayout = "2006-01-02T15:04:05.000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// Reserved header keys. Caller metadata may not shadow these: the reserved
// values are merged last and win on collision.
const (
	keyVersion   = "version"
	keyType      = "type"
	keyCreatedAt = "createdAt"
	keyMachineID = "machineId"
	keyRootPath  = "rootPath"
	keyPath      = "path"
	keyStatus    = "status"
)

// encodeHeader serializes a header as a single flat JSON object: caller
// metadata first, reserved keys last.
func encodeHeader(h *model.Header) ([]byte, error) {
	m := make(map[string]string, len(h.Metadata)+5)
	for k, v := range h.Metadata {
		m[k] = v
	}
	m[keyVersion] = h.Version
	m[keyType] = h.Type
	m[keyCreatedAt] = formatTime(h.CreatedAt)
	m[keyMachineID] = h.MachineID
	m[keyRootPath] = h.RootPath
	return json.Marshal(m)
}

func decodeHeader(raw map[string]json.RawMessage) (*model.Header, error) {
	h := &model.Header{Metadata: make(map[string]string)}

	var err error
	if h.Version, err = stringField(raw, keyVersion); err != nil {
		return nil, err
	}
	if h.Type, err = stringField(raw, keyType); err != nil {
		return nil, err
	}
	if h.MachineID, err = stringField(raw, keyMachineID); err != nil {
		return nil, err
	}
	if h.RootPath, err = stringField(raw, keyRootPath); err != nil {
		return nil, err
	}
	createdAt, err := stringField(raw, keyCreatedAt)
	if err != nil {
		return nil, err
	}
	if h.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("header createdAt: %w", err)
	}

	for k, v := range raw {
		switch k {
		case keyVersion, keyType, keyCreatedAt, keyMachineID, keyRootPath:
			continue
		}
		// Non-string metadata values are not representable; reject rather
		// than silently coercing.
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, fmt.Errorf("header metadata %q: expected string value", k)
		}
		h.Metadata[k] = s
	}

	return h, nil
}

// entryJSON is the wire shape of a FileEntry. Size and SHA256 are pointers
// so that their absence round-trips as field-omitted, never as zero.
type entryJSON struct {
	Path   string  `json:"path"`
	Type   string  `json:"type"`
	CTime  string  `json:"ctime"`
	MTime  string  `json:"mtime"`
	Depth  *int    `json:"depth"`
	Size   *int64  `json:"size,omitempty"`
	SHA256 *string `json:"sha256,omitempty"`
}

func encodeEntry(e *model.FileEntry) ([]byte, error) {
	depth := e.Depth
	w := entryJSON{
		Path:  e.Path,
		Type:  string(e.Type),
		CTime: formatTime(e.CTime),
		MTime: formatTime(e.MTime),
		Depth: &depth,
	}
	if e.Type == model.TypeFile && e.File != nil {
		w.Size = &e.File.Size
		w.SHA256 = &e.File.SHA256
	}
	return json.Marshal(w)
}

func decodeEntry(line []byte) (*model.FileEntry, error) {
	var w entryJSON
	if err := json.Unmarshal(line, &w); err != nil {
		return nil, fmt.Errorf("invalid entry record: %w", err)
	}
	if w.Path == "" {
		return nil, fmt.Errorf("entry record missing path")
	}

	if w.Depth == nil {
		return nil, fmt.Errorf("entry %s: missing depth", w.Path)
	}
	e := &model.FileEntry{Path: w.Path, Depth: *w.Depth}

	switch model.EntryType(w.Type) {
	case model.TypeFile, model.TypeDirectory:
		e.Type = model.EntryType(w.Type)
	default:
		return nil, fmt.Errorf("entry %s: unknown type %q", w.Path, w.Type)
	}
	if w.CTime == "" || w.MTime == "" {
		return nil, fmt.Errorf("entry %s: missing ctime/mtime", w.Path)
	}
	var err error
	if e.CTime, err = parseTime(w.CTime); err != nil {
		return nil, fmt.Errorf("entry %s ctime: %w", w.Path, err)
	}
	if e.MTime, err = parseTime(w.MTime); err != nil {
		return nil, fmt.Errorf("entry %s mtime: %w", w.Path, err)
	}
	if e.Depth < 0 {
		return nil, fmt.Errorf("entry %s: negative depth %d", w.Path, e.Depth)
	}

	// Content attributes bind to the file variant only; stray size/sha256
	// on a directory record are dropped.
	if e.Type == model.TypeFile && (w.Size != nil || w.SHA256 != nil) {
		fd := &model.FileData{}
		if w.Size != nil {
			fd.Size = *w.Size
		}
		if w.SHA256 != nil {
			fd.SHA256 = *w.SHA256
		}
		e.File = fd
	}

	return e, nil
}

type footerJSON struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func encodeFooter(f *model.Footer) ([]byte, error) {
	return json.Marshal(footerJSON{Status: string(f.Status), Message: f.Message})
}

func decodeFooter(line []byte) (*model.Footer, error) {
	var w footerJSON
	if err := json.Unmarshal(line, &w); err != nil {
		return nil, fmt.Errorf("invalid footer record: %w", err)
	}
	switch model.Status(w.Status) {
	case model.StatusSuccess, model.StatusError:
		return &model.Footer{Status: model.Status(w.Status), Message: w.Message}, nil
	default:
		return nil, fmt.Errorf("footer: unknown status %q", w.Status)
	}
}

// recordKind identifies which variant a snapshot line holds.
type recordKind int

const (
	kindUnknown recordKind = iota
	kindHeader
	kindEntry
	kindFooter
)

// classifyLine parses one line into its raw keys and discriminates the
// record variant structurally: rootPath marks the header, status the
// footer, path an entry.
func classifyLine(line []byte) (recordKind, map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return kindUnknown, nil, fmt.Errorf("line is not a JSON object: %w", err)
	}
	switch {
	case hasKey(raw, keyRootPath):
		return kindHeader, raw, nil
	case hasKey(raw, keyStatus):
		return kindFooter, raw, nil
	case hasKey(raw, keyPath):
		return kindEntry, raw, nil
	default:
		return kindUnknown, raw, fmt.Errorf("record has none of rootPath/status/path")
	}
}

func hasKey(raw map[string]json.RawMessage, key string) bool {
	_, ok := raw[key]
	return ok
}

func stringField(raw map[string]json.RawMessage, key string) (string, error) {
	v, ok := raw[key]
	if !ok {
		return "", fmt.Errorf("missing required key %q", key)
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", fmt.Errorf("key %q: expected string value", key)
	}
	return s, nil
}
