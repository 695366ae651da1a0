// Package stability decides which dropped files are done being written.
//
// A file is stable when two checksum passes separated by a wait interval
// produce the same digest. Files that fail either pass or change in between
// are skipped; the next scan is the retry mechanism, there is no internal
// retry loop.
package stability

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"csvwatch/internal/checksum"
	"csvwatch/internal/logging"
)

// Detector produces the set of files safe to process from a watch directory.
type Detector struct {
	engine     *checksum.Engine
	wait       time.Duration
	extensions []string
	logger     *slog.Logger

	sleep func(context.Context, time.Duration) error
}

// New constructs a detector. Extensions must be lowercase and dot-prefixed,
// as config normalization guarantees.
func New(engine *checksum.Engine, wait time.Duration, extensions []string, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Detector{
		engine:     engine,
		wait:       wait,
		extensions: extensions,
		logger:     logger,
		sleep:      sleepContext,
	}
}

// Scan returns the stable files in dir, sorted by name for reproducible runs.
func (d *Detector) Scan(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	first := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !d.supported(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		digest, err := d.engine.Digest(path)
		if err != nil {
			d.logger.Warn("checksum failed; treating file as unstable", "file", path, "error", err)
			continue
		}
		first[path] = digest
	}

	if len(first) == 0 {
		return nil, nil
	}

	if err := d.sleep(ctx, d.wait); err != nil {
		return nil, err
	}

	stable := make([]string, 0, len(first))
	for path, digest := range first {
		second, err := d.engine.Digest(path)
		if err != nil {
			d.logger.Warn("checksum failed on second pass; skipping", "file", path, "error", err)
			continue
		}
		if second != digest {
			d.logger.Warn("file still changing; skipping until next scan", "file", path)
			continue
		}
		stable = append(stable, path)
	}

	sort.Strings(stable)
	return stable, nil
}

func (d *Detector) supported(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range d.extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
