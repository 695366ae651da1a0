// Package logging assembles the structured slog loggers used across csvwatch.
//
// Console output uses tint for readable colorized lines; JSON output is
// available for scheduler/cron capture, and a JSON copy always lands in the
// configured log file. Prefer these constructors over hand-rolled slog setup
// so every component emits records with the same shape.
package logging
