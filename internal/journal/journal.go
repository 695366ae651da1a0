package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Outcome classifies what happened to one processed file.
type Outcome string

const (
	OutcomeMerged  Outcome = "merged"
	OutcomeDryRun  Outcome = "dry_run"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Entry is one journal record: a single file seen by one run.
type Entry struct {
	ID             int64
	RunID          string
	FileName       string
	Digest         string
	Outcome        Outcome
	ErrorKind      string
	ErrorDetail    string
	RowCount       int
	KeysReplaced   int
	ColumnsDropped []string
	ProcessedAt    time.Time
}

// Store persists the processing journal in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record appends one entry to the journal.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	dropped, err := json.Marshal(entry.ColumnsDropped)
	if err != nil {
		return fmt.Errorf("marshal dropped columns: %w", err)
	}
	processedAt := entry.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO processed_files (
            run_id, file_name, digest, outcome, error_kind, error_detail,
            row_count, keys_replaced, columns_dropped, processed_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.FileName,
		entry.Digest,
		string(entry.Outcome),
		nullableString(entry.ErrorKind),
		nullableString(entry.ErrorDetail),
		entry.RowCount,
		entry.KeysReplaced,
		string(dropped),
		processedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, run_id, file_name, digest, outcome, error_kind, error_detail,
                row_count, keys_replaced, columns_dropped, processed_at
         FROM processed_files ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// HasMergedDigest reports whether content with this digest was already
// merged successfully. Lets a scan skip a re-dropped copy of a file whose
// rows are already in the master.
func (s *Store) HasMergedDigest(ctx context.Context, digest string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM processed_files WHERE digest = ? AND outcome = ?`,
		digest, string(OutcomeMerged),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query digest: %w", err)
	}
	return count > 0, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		entry       Entry
		outcome     string
		errorKind   sql.NullString
		errorDetail sql.NullString
		dropped     string
		processedAt string
	)
	if err := rows.Scan(
		&entry.ID, &entry.RunID, &entry.FileName, &entry.Digest, &outcome,
		&errorKind, &errorDetail, &entry.RowCount, &entry.KeysReplaced,
		&dropped, &processedAt,
	); err != nil {
		return Entry{}, fmt.Errorf("scan journal entry: %w", err)
	}
	entry.Outcome = Outcome(outcome)
	entry.ErrorKind = errorKind.String
	entry.ErrorDetail = errorDetail.String
	if dropped != "" {
		if err := json.Unmarshal([]byte(dropped), &entry.ColumnsDropped); err != nil {
			return Entry{}, fmt.Errorf("parse dropped columns: %w", err)
		}
	}
	if ts, err := time.Parse(time.RFC3339Nano, processedAt); err == nil {
		entry.ProcessedAt = ts
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
