package preflight

import (
	"context"
	"path/filepath"

	"csvwatch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Watch directory", cfg.Paths.WatchDir))
	results = append(results, CheckDirectoryAccess("Archive directory", cfg.Paths.ArchiveDir))

	if cfg.Paths.BackupDir != "" {
		results = append(results, CheckDirectoryAccess("Backup directory", cfg.Paths.BackupDir))
	}

	masterDir := filepath.Dir(cfg.Paths.MergedFile)
	results = append(results, CheckDirectoryAccess("Master directory", masterDir))
	results = append(results, CheckDiskSpace("Master volume", masterDir, minimumFreeBytes))

	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
