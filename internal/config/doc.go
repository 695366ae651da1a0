// Package config loads and validates csvwatch configuration.
//
// Configuration is a single immutable value threaded explicitly through every
// component; nothing reads process-wide state after Load returns. Load merges
// the TOML file over built-in defaults, expands tilde paths, normalizes
// values, and rejects unusable settings before any file is touched.
package config
