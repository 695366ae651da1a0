package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewWritesJSONCopyToLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "csvwatch.log")

	logger, err := New(Options{Format: "console", LogFile: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("merge complete", "rows", 3)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"merge complete"`) {
		t.Fatalf("log file missing JSON record: %s", data)
	}
	if !strings.Contains(string(data), `"rows":3`) {
		t.Fatalf("log file missing attribute: %s", data)
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic or print")
}

func TestWithComponentNilLogger(t *testing.T) {
	logger := WithComponent(nil, "merge")
	logger.Info("still safe")
}
