package archive

import (
	"testing"

	"dirsnap/internal/config"
)

func TestNewArchiveFromConfig(t *testing.T) {
	t.Run("filesystem", func(t *testing.T) {
		a, err := NewArchiveFromConfig(config.ArchiveConfig{Type: "filesystem", Root: t.TempDir()})
		if err != nil {
			t.Fatalf("NewArchiveFromConfig() error = %v", err)
		}
		if _, ok := a.(*FileSystemArchive); !ok {
			t.Errorf("got %T, want *FileSystemArchive", a)
		}
	})

	t.Run("filesystem without root", func(t *testing.T) {
		if _, err := NewArchiveFromConfig(config.ArchiveConfig{Type: "filesystem"}); err == nil {
			t.Error("NewArchiveFromConfig() expected error without root")
		}
	})

	t.Run("memory", func(t *testing.T) {
		a, err := NewArchiveFromConfig(config.ArchiveConfig{Type: "memory"})
		if err != nil {
			t.Fatalf("NewArchiveFromConfig() error = %v", err)
		}
		if _, ok := a.(*MemoryArchive); !ok {
			t.Errorf("got %T, want *MemoryArchive", a)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		if _, err := NewArchiveFromConfig(config.ArchiveConfig{Type: "tape"}); err == nil {
			t.Error("NewArchiveFromConfig() expected error for unknown type")
		}
	})
}
