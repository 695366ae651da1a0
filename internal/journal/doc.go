// Package journal persists a per-file processing history in SQLite.
//
// Every scan appends one entry per handled file: what was merged, what
// failed and why, and the content digest involved. The history backs the
// `csvwatch history` command and lets a scan skip content that was already
// merged under a different drop of the same file.
//
// The database is bookkeeping, not a system of record; the master file and
// its metadata JSON stand on their own without it.
package journal
