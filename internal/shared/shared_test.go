package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewLogger(t *testing.T) {
	t.Run("writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("catalog loaded", "songs", 3)

		if !strings.Contains(buf.String(), "catalog loaded") || !strings.Contains(buf.String(), "songs=3") {
			t.Errorf("unexpected log output %q", buf.String())
		}
	})

	t.Run("file logger creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "tui.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		logger.Debug("hello")

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("expected log file, got %v", err)
		}
		if !strings.Contains(string(data), "hello") {
			t.Errorf("expected debug line in file, got %q", data)
		}
	})

	t.Run("nop logger discards", func(t *testing.T) {
		NopLogger().Error("ignored")
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected unique ids")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("expected a valid uuid, got %q: %v", a, err)
	}
}
