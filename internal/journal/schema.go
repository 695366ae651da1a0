package journal

import (
	"context"
	"fmt"
)

// schemaVersion is the current schema version. Bump when the schema changes;
// the journal is bookkeeping, so users can delete the database to adopt a
// new schema.
const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS processed_files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    file_name TEXT NOT NULL,
    digest TEXT NOT NULL,
    outcome TEXT NOT NULL,
    error_kind TEXT,
    error_detail TEXT,
    row_count INTEGER NOT NULL DEFAULT 0,
    keys_replaced INTEGER NOT NULL DEFAULT 0,
    columns_dropped TEXT,
    processed_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_processed_files_digest
    ON processed_files(digest, outcome);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL
);
`

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("journal schema version mismatch: database has %d, expected %d (delete %s to reset)",
			version, schemaVersion, s.path)
	}
	return nil
}
