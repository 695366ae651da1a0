package metadata

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	writer := New(path)
	writer.now = func() time.Time {
		return time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	}

	columns := []string{"cluster_name", "region", "status"}
	if err := writer.Write(columns, 7); err != nil {
		t.Fatalf("Write: %v", err)
	}

	summary, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if summary.LastUpdated != "2026-08-31T10:00:00Z" {
		t.Fatalf("unexpected timestamp %q", summary.LastUpdated)
	}
	if summary.RowCount != 7 || summary.ColumnCount != 3 {
		t.Fatalf("unexpected counts %+v", summary)
	}
	if !reflect.DeepEqual(summary.Columns, columns) {
		t.Fatalf("unexpected columns %v", summary.Columns)
	}
}

func TestWriteReplacesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	writer := New(path)

	if err := writer.Write([]string{"a", "b"}, 2); err != nil {
		t.Fatal(err)
	}
	if err := writer.Write([]string{"a"}, 1); err != nil {
		t.Fatal(err)
	}

	summary, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if summary.ColumnCount != 1 || summary.RowCount != 1 {
		t.Fatalf("expected full replacement, got %+v", summary)
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing metadata")
	}
}
