// Package metadata writes the master summary JSON rewritten after every
// successful merge. Each write fully replaces the previous file; history
// lives in the run journal, not here.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Summary is the persisted metadata shape.
type Summary struct {
	LastUpdated string   `json:"last_updated"`
	RowCount    int      `json:"row_count"`
	ColumnCount int      `json:"column_count"`
	Columns     []string `json:"columns"`
}

// Writer overwrites the metadata file after each commit.
type Writer struct {
	path string
	now  func() time.Time
}

// New returns a writer targeting path.
func New(path string) *Writer {
	return &Writer{path: path, now: time.Now}
}

// Write replaces the metadata file with a summary of the current master.
func (w *Writer) Write(columns []string, rowCount int) error {
	summary := Summary{
		LastUpdated: w.now().Format(time.RFC3339),
		RowCount:    rowCount,
		ColumnCount: len(columns),
		Columns:     columns,
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(w.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// Read loads the current metadata summary.
func Read(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return &summary, nil
}
