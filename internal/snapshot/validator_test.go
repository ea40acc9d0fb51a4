package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	testHeader = `{"version":"1.0.0","type":"dir-snapshot","createdAt":"2024-01-15T10:30:00.000Z","machineId":"m","rootPath":"/data"}`
	testEntry  = `{"path":"/data/a.txt","type":"file","ctime":"2024-01-10T08:00:00.000Z","mtime":"2024-01-10T08:00:00.000Z","depth":0,"size":3,"sha256":"ab"}`
	testFooter = `{"status":"success"}`
	errFooter  = `{"status":"error","message":"scan aborted"}`
)

func lines(ls ...string) string {
	return strings.Join(ls, "\n") + "\n"
}

func TestValidateStream(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		wantValid      bool
		wantIncomplete bool
	}{
		{
			name:      "header entries footer",
			input:     lines(testHeader, testEntry, testFooter),
			wantValid: true,
		},
		{
			name:      "empty snapshot with footer",
			input:     lines(testHeader, testFooter),
			wantValid: true,
		},
		{
			name:      "blank lines ignored",
			input:     "\n" + testHeader + "\n\n" + testEntry + "\n\n" + testFooter + "\n\n",
			wantValid: true,
		},
		{
			name:           "error footer is incomplete",
			input:          lines(testHeader, testEntry, errFooter),
			wantIncomplete: true,
		},
		{
			name:  "empty stream",
			input: "",
		},
		{
			name:  "blank lines only",
			input: "\n\n\n",
		},
		{
			name:  "missing footer",
			input: lines(testHeader, testEntry),
		},
		{
			name:  "entry before header",
			input: lines(testEntry, testHeader, testFooter),
		},
		{
			name:  "footer first",
			input: lines(testFooter),
		},
		{
			name:  "second header mid-stream",
			input: lines(testHeader, testHeader, testFooter),
		},
		{
			name:  "content after success footer",
			input: lines(testHeader, testFooter, testEntry),
		},
		{
			name:  "content after error footer",
			input: lines(testHeader, errFooter, testEntry),
		},
		{
			name:  "non-JSON line",
			input: lines(testHeader, "not json", testFooter),
		},
		{
			name:  "entry missing depth",
			input: lines(testHeader, `{"path":"/data/a","type":"file","ctime":"2024-01-10T08:00:00.000Z","mtime":"2024-01-10T08:00:00.000Z"}`, testFooter),
		},
		{
			name:  "footer with unknown status",
			input: lines(testHeader, `{"status":"done"}`),
		},
		{
			name:  "header missing rootPath",
			input: lines(`{"version":"1.0.0","type":"dir-snapshot","createdAt":"2024-01-15T10:30:00.000Z","machineId":"m"}`, testFooter),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateStream(strings.NewReader(tt.input))
			if res.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (reason: %s)", res.Valid, tt.wantValid, res.Reason)
			}
			if res.Incomplete != tt.wantIncomplete {
				t.Errorf("Incomplete = %v, want %v (reason: %s)", res.Incomplete, tt.wantIncomplete, res.Reason)
			}
			if !tt.wantValid && !tt.wantIncomplete && !res.Malformed {
				t.Error("expected Malformed for invalid input")
			}
		})
	}
}

func TestValidateStream_IncompleteCarriesMessage(t *testing.T) {
	res := ValidateStream(strings.NewReader(lines(testHeader, errFooter)))
	if res.Valid || !res.Incomplete {
		t.Fatalf("result = %+v, want incomplete", res)
	}
	if res.Reason != "scan aborted" {
		t.Errorf("Reason = %q, want footer message", res.Reason)
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "good.snap")
		if err := os.WriteFile(path, []byte(lines(testHeader, testEntry, testFooter)), 0o644); err != nil {
			t.Fatal(err)
		}

		ok, err := Validate(path)
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if !ok {
			t.Error("Validate() = false, want true")
		}
	})

	t.Run("invalid file is not an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.snap")
		if err := os.WriteFile(path, []byte("garbage\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		ok, err := Validate(path)
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if ok {
			t.Error("Validate() = true, want false")
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, err := Validate(filepath.Join(t.TempDir(), "nope.snap")); err == nil {
			t.Error("Validate() expected error for missing file")
		}
	})
}
