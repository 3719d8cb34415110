package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	t.Run("writes to provided writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected message in output, got %q", buf.String())
		}
	})

	t.Run("nil writer defaults", func(t *testing.T) {
		if logger := NewLogger(nil); logger == nil {
			t.Error("expected a logger")
		}
	})
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	child := WithLogger(logger, "run", "abc123")
	child.Info("step")

	if !strings.Contains(buf.String(), "abc123") {
		t.Errorf("expected bound field in output, got %q", buf.String())
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	SetLogLevel(logger, log.ErrorLevel)

	logger.Info("suppressed")
	if strings.Contains(buf.String(), "suppressed") {
		t.Error("info output should be suppressed at error level")
	}

	logger.Error("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("error output should still appear")
	}
}

func TestGenerateID(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		id := GenerateID()
		if len(id) != 36 {
			t.Fatalf("expected UUID string, got %q", id)
		}
		if seen[id] {
			t.Fatal("expected unique IDs")
		}
		seen[id] = true
	}
}
