package monitor

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"csvwatch/internal/archive"
	"csvwatch/internal/checksum"
	"csvwatch/internal/config"
	"csvwatch/internal/faults"
	"csvwatch/internal/journal"
	"csvwatch/internal/logging"
	"csvwatch/internal/merge"
	"csvwatch/internal/notifications"
	"csvwatch/internal/persist"
	"csvwatch/internal/stability"
	"csvwatch/internal/tabular"
	"csvwatch/internal/validate"
)

// Monitor sequences the full per-file pipeline: stability scan, validation,
// merge, locked commit, archive, and metadata. Files are processed one at a
// time; a failure in one file never stops the rest of the batch.
type Monitor struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *journal.Store
	notifier notifications.Service

	engine      *checksum.Engine
	detector    *stability.Detector
	validator   *validate.Validator
	merger      *merge.Engine
	coordinator *persist.Coordinator
	archiver    *archive.Archiver

	dryRun bool
}

// Options adjusts per-run behavior on top of the loaded configuration.
type Options struct {
	DryRun bool
}

// FileResult captures what happened to one discovered file.
type FileResult struct {
	Path    string
	Outcome journal.Outcome
	Err     error
}

// RunResult summarizes one complete scan pass.
type RunResult struct {
	RunID    string
	Files    []FileResult
	Merged   int
	Skipped  int
	Failed   int
	Duration time.Duration
}

// New wires a monitor from configuration. The journal store and notifier are
// shared with the caller, which owns their lifecycle.
func New(cfg *config.Config, logger *slog.Logger, store *journal.Store, notifier notifications.Service, opts Options) (*Monitor, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	codec, err := tabular.NewCodec(cfg.DelimiterRune(), cfg.CSV.Encoding)
	if err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "monitor", "init", "build csv codec", err)
	}

	engine := checksum.New(cfg.Stability.ChunkSize, cfg.MaxFileSizeBytes())

	return &Monitor{
		cfg:         cfg,
		logger:      logging.WithComponent(logger, "monitor"),
		store:       store,
		notifier:    notifier,
		engine:      engine,
		detector:    stability.New(engine, cfg.ChecksumWait(), cfg.CSV.SupportedExtensions, logger),
		validator:   validate.New(codec, cfg.Merge.KeyColumn, cfg.Merge.RequiredColumns),
		merger:      merge.New(cfg.Merge.KeyColumn, cfg.Merge.SortOutput),
		coordinator: persist.New(cfg, codec, logger),
		archiver:    archive.New(cfg.Paths.ArchiveDir, logger),
		dryRun:      opts.DryRun,
	}, nil
}

// ProcessAll runs one complete scan pass over the watch directory. Per-file
// errors are journaled and logged but do not fail the pass; only fatal
// configuration errors and context cancellation are returned.
func (m *Monitor) ProcessAll(ctx context.Context) (*RunResult, error) {
	started := time.Now()
	result := &RunResult{RunID: uuid.NewString()}
	logger := m.logger.With("run_id", result.RunID)

	logger.Info("scanning watch directory",
		"dir", m.cfg.Paths.WatchDir,
		"dry_run", m.dryRun)

	stable, err := m.detector.Scan(ctx, m.cfg.Paths.WatchDir)
	if err != nil {
		return nil, err
	}
	if len(stable) == 0 {
		logger.Info("no stable files found")
		result.Duration = time.Since(started)
		return result, nil
	}

	for _, path := range stable {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		outcome, err := m.processFile(ctx, logger, result.RunID, path)
		result.Files = append(result.Files, FileResult{Path: path, Outcome: outcome, Err: err})
		switch {
		case err == nil && outcome == journal.OutcomeSkipped:
			result.Skipped++
		case err == nil:
			result.Merged++
		case faults.IsFatal(err):
			return result, err
		default:
			result.Failed++
			logger.Error("file processing failed",
				"file", filepath.Base(path),
				"kind", faults.Kind(err),
				"error", err)
			if nerr := m.notifier.NotifyFileFailed(ctx, filepath.Base(path), err); nerr != nil {
				logger.Warn("failure notification not delivered", "error", nerr)
			}
		}
	}

	result.Duration = time.Since(started)
	logger.Info("scan pass complete",
		"merged", result.Merged,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration", result.Duration.Round(time.Millisecond))

	if result.Merged > 0 || result.Failed > 0 {
		if nerr := m.notifier.NotifyRunCompleted(ctx, result.Merged, result.Failed, result.Duration); nerr != nil {
			logger.Warn("run notification not delivered", "error", nerr)
		}
	}
	return result, nil
}

// processFile takes one stable file end to end. The merge, master rewrite,
// backup, and metadata update all happen while the advisory lock is held.
func (m *Monitor) processFile(ctx context.Context, logger *slog.Logger, runID, path string) (journal.Outcome, error) {
	name := filepath.Base(path)
	flog := logger.With("file", name)

	digest, err := m.engine.Digest(path)
	if err != nil {
		m.record(ctx, flog, journal.Entry{RunID: runID, FileName: name, Outcome: journal.OutcomeFailed,
			ErrorKind: faults.Kind(err), ErrorDetail: err.Error()})
		return journal.OutcomeFailed, err
	}
	flog = flog.With("digest", shortDigest(digest))

	if m.store != nil {
		seen, err := m.store.HasMergedDigest(ctx, digest)
		if err != nil {
			flog.Warn("journal digest lookup failed", "error", err)
		} else if seen {
			return m.skipDuplicate(ctx, flog, runID, name, digest, path)
		}
	}

	file, err := m.validator.Load(path)
	if err != nil {
		m.record(ctx, flog, journal.Entry{RunID: runID, FileName: name, Digest: digest,
			Outcome: journal.OutcomeFailed, ErrorKind: faults.Kind(err), ErrorDetail: err.Error()})
		return journal.OutcomeFailed, err
	}

	flog.Info("file validated", "rows", len(file.Rows), "columns", len(file.Columns))

	res, err := m.coordinator.Commit(ctx, m.dryRun, func(base *tabular.File) (*merge.Plan, error) {
		return m.merger.Merge(base, file), nil
	})
	if err != nil {
		m.record(ctx, flog, journal.Entry{RunID: runID, FileName: name, Digest: digest,
			Outcome: journal.OutcomeFailed, ErrorKind: faults.Kind(err), ErrorDetail: err.Error()})
		return journal.OutcomeFailed, err
	}
	plan := res.Plan

	logMerge(flog, plan, m.cfg.Merge.MaxKeysInLog, m.dryRun)

	if m.dryRun {
		m.record(ctx, flog, journal.Entry{RunID: runID, FileName: name, Digest: digest,
			Outcome: journal.OutcomeDryRun, RowCount: len(plan.Rows),
			KeysReplaced: len(plan.ReplacedKeys), ColumnsDropped: plan.DroppedColumns})
		return journal.OutcomeDryRun, nil
	}

	archived, err := m.archiver.Move(path)
	if err != nil {
		// The master is already updated; leaving the source behind would
		// re-merge the same digest, which the journal skip check catches.
		m.record(ctx, flog, journal.Entry{RunID: runID, FileName: name, Digest: digest,
			Outcome: journal.OutcomeFailed, ErrorKind: faults.Kind(err), ErrorDetail: err.Error(),
			RowCount: len(plan.Rows), KeysReplaced: len(plan.ReplacedKeys), ColumnsDropped: plan.DroppedColumns})
		return journal.OutcomeFailed, err
	}
	flog.Info("source archived", "to", archived)

	m.record(ctx, flog, journal.Entry{RunID: runID, FileName: name, Digest: digest,
		Outcome: journal.OutcomeMerged, RowCount: len(plan.Rows),
		KeysReplaced: len(plan.ReplacedKeys), ColumnsDropped: plan.DroppedColumns})

	if nerr := m.notifier.NotifyMergeCompleted(ctx, name, len(plan.Rows), len(plan.ReplacedKeys), plan.DroppedColumns); nerr != nil {
		flog.Warn("merge notification not delivered", "error", nerr)
	}
	return journal.OutcomeMerged, nil
}

// skipDuplicate archives a file whose exact content was already merged so it
// is not rescanned forever, without touching the master dataset.
func (m *Monitor) skipDuplicate(ctx context.Context, flog *slog.Logger, runID, name, digest, path string) (journal.Outcome, error) {
	flog.Info("skipping already merged file")
	if !m.dryRun {
		if archived, err := m.archiver.Move(path); err != nil {
			flog.Warn("archiving duplicate failed", "error", err)
		} else {
			flog.Info("duplicate archived", "to", archived)
		}
	}
	m.record(ctx, flog, journal.Entry{RunID: runID, FileName: name, Digest: digest,
		Outcome: journal.OutcomeSkipped})
	return journal.OutcomeSkipped, nil
}

func (m *Monitor) record(ctx context.Context, flog *slog.Logger, entry journal.Entry) {
	if m.store == nil {
		return
	}
	if err := m.store.Record(ctx, entry); err != nil {
		flog.Warn("journal write failed", "error", err)
	}
}

func logMerge(flog *slog.Logger, plan *merge.Plan, maxKeys int, dryRun bool) {
	flog.Info("merge computed",
		"dry_run", dryRun,
		"rows", len(plan.Rows),
		"columns", len(plan.Columns),
		"new_keys", archive.FormatKeys(plan.NewKeys, maxKeys),
		"replaced_keys", archive.FormatKeys(plan.ReplacedKeys, maxKeys))
	if len(plan.DroppedColumns) > 0 {
		flog.Info("obsolete columns dropped", "columns", plan.DroppedColumns)
	}
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
