// Package persist owns every mutation of the master file.
//
// A commit acquires the cross-process advisory lock, re-reads the master
// fresh, computes the merge inside the lock, and replaces the master with a
// temp-file-then-rename so a reader never observes a partial write. Nothing
// outside this package writes the master file.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"csvwatch/internal/config"
	"csvwatch/internal/faults"
	"csvwatch/internal/logging"
	"csvwatch/internal/merge"
	"csvwatch/internal/metadata"
	"csvwatch/internal/tabular"
)

// lockRetryDelay is how often a blocked commit re-attempts the flock while
// waiting out the configured timeout.
const lockRetryDelay = 250 * time.Millisecond

// Coordinator serializes master file access across processes.
type Coordinator struct {
	masterPath  string
	lockPath    string
	backupDir   string
	retention   int
	lockTimeout time.Duration
	codec       *tabular.Codec
	metadata    *metadata.Writer
	logger      *slog.Logger
}

// Result reports what a commit did.
type Result struct {
	Plan       *merge.Plan
	BackupPath string
	DryRun     bool
}

// New builds a coordinator from configuration.
func New(cfg *config.Config, codec *tabular.Codec, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Coordinator{
		masterPath:  cfg.Paths.MergedFile,
		lockPath:    cfg.LockPath(),
		backupDir:   cfg.Paths.BackupDir,
		retention:   cfg.Backup.RetentionCount,
		lockTimeout: cfg.LockTimeout(),
		codec:       codec,
		logger:      logging.WithComponent(logger, "persist"),
	}
	if cfg.Paths.MetadataFile != "" {
		c.metadata = metadata.New(cfg.Paths.MetadataFile)
	}
	return c
}

// Commit runs compute against a fresh read of the master dataset while
// holding the advisory lock, then persists the resulting plan. With dryRun
// set, the lock is still taken and the plan computed, but no filesystem
// mutation of any kind happens.
func (c *Coordinator) Commit(ctx context.Context, dryRun bool, compute func(base *tabular.File) (*merge.Plan, error)) (*Result, error) {
	lock := flock.New(c.lockPath)
	if err := c.acquire(ctx, lock); err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			c.logger.Warn("failed to release master lock", "lock", c.lockPath, "error", err)
		}
	}()

	base := c.readBase()

	plan, err := compute(base)
	if err != nil {
		return nil, err
	}

	result := &Result{Plan: plan, DryRun: dryRun}
	if dryRun {
		c.logger.Info("dry run: skipping master write", "rows", len(plan.Rows), "columns", len(plan.Columns))
		return result, nil
	}

	backupPath, err := c.backupMaster()
	if err != nil {
		return nil, faults.Wrap(faults.ErrFileProcessing, "persist", "backup", c.masterPath, err)
	}
	result.BackupPath = backupPath

	if err := c.writeAtomic(plan); err != nil {
		return nil, err
	}

	// The summary must describe the master that was just renamed into place,
	// so it is written while the lock is still held. A concurrent commit
	// otherwise could slip its own master and summary in between the two
	// writes and leave this summary describing a superseded state.
	if c.metadata != nil {
		if err := c.metadata.Write(plan.Columns, len(plan.Rows)); err != nil {
			c.logger.Warn("metadata write failed", "error", err)
		}
	}

	if err := c.pruneBackups(); err != nil {
		// Pruning failure leaves extra backups behind but the commit stands.
		c.logger.Warn("backup pruning failed", "dir", c.backupDir, "error", err)
	}

	return result, nil
}

func (c *Coordinator) acquire(ctx context.Context, lock *flock.Flock) error {
	if c.lockTimeout <= 0 {
		ok, err := lock.TryLock()
		if err != nil {
			return faults.Wrap(faults.ErrLockTimeout, "persist", "lock", c.lockPath, err)
		}
		if !ok {
			return faults.Wrap(faults.ErrLockTimeout, "persist", "lock", fmt.Sprintf("%s held by another process", c.lockPath), nil)
		}
		return nil
	}

	lockCtx, cancel := context.WithTimeout(ctx, c.lockTimeout)
	defer cancel()

	ok, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return faults.Wrap(faults.ErrLockTimeout, "persist", "lock",
				fmt.Sprintf("%s not acquired within %s", c.lockPath, c.lockTimeout), nil)
		}
		return faults.Wrap(faults.ErrLockTimeout, "persist", "lock", c.lockPath, err)
	}
	if !ok {
		return faults.Wrap(faults.ErrLockTimeout, "persist", "lock", c.lockPath, nil)
	}
	return nil
}

// readBase loads the current master dataset, or nil when no master exists
// yet. An unreadable master is treated as absent rather than fatal so a
// corrupted file does not wedge the pipeline forever; the backup taken
// before the next write preserves the bytes for inspection.
func (c *Coordinator) readBase() *tabular.File {
	if _, err := os.Stat(c.masterPath); err != nil {
		return nil
	}
	base, err := c.codec.ReadFile(c.masterPath)
	if err != nil {
		c.logger.Warn("master file unreadable; starting from incoming schema", "file", c.masterPath, "error", err)
		return nil
	}
	return base
}

func (c *Coordinator) writeAtomic(plan *merge.Plan) error {
	dir := filepath.Dir(c.masterPath)
	tmp, err := os.CreateTemp(dir, ".master-*.csv.tmp")
	if err != nil {
		return faults.Wrap(faults.ErrFileProcessing, "persist", "write", "create temp file", err)
	}
	tmpPath := tmp.Name()

	writeErr := c.codec.Write(tmp, &tabular.File{Columns: plan.Columns, Rows: plan.Rows})
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return faults.Wrap(faults.ErrFileProcessing, "persist", "write", tmpPath, writeErr)
	}

	if err := os.Rename(tmpPath, c.masterPath); err != nil {
		_ = os.Remove(tmpPath)
		return faults.Wrap(faults.ErrFileProcessing, "persist", "rename", c.masterPath, err)
	}
	return nil
}
