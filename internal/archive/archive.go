// Package archive relocates processed source files out of the watch
// directory so they are never picked up twice.
package archive

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"csvwatch/internal/fileutil"
	"csvwatch/internal/logging"
)

// archiveTimestampLayout yields millisecond resolution so same-named files
// processed back to back never collide.
const archiveTimestampLayout = "20060102T150405.000"

// Archiver moves processed files into the archive directory.
type Archiver struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// New returns an archiver writing into dir.
func New(dir string, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Archiver{
		dir:    dir,
		logger: logging.WithComponent(logger, "archive"),
		now:    time.Now,
	}
}

// Move relocates src into the archive directory, suffixing its name with a
// timestamp. Returns the destination path.
func (a *Archiver) Move(src string) (string, error) {
	name := fmt.Sprintf("%s.%s", filepath.Base(src), a.now().Format(archiveTimestampLayout))
	dst := filepath.Join(a.dir, name)
	if err := fileutil.MoveFile(src, dst); err != nil {
		return "", fmt.Errorf("archive %s: %w", src, err)
	}
	a.logger.Info("archived source file", "from", src, "to", dst)
	return dst, nil
}

// FormatKeys renders a capped, sorted key list for log lines so a huge
// incoming file cannot flood the log.
func FormatKeys(keys []string, max int) string {
	if max <= 0 || len(keys) == 0 {
		return ""
	}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	shown := sorted
	if len(shown) > max {
		shown = shown[:max]
	}
	display := strings.Join(shown, ", ")
	if len(sorted) > max {
		display += fmt.Sprintf("... (%d total)", len(sorted))
	}
	return display
}
