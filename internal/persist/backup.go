package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"csvwatch/internal/fileutil"
)

const backupTimestampLayout = "20060102_150405"

// backupMaster copies the current master into the backup directory before it
// is overwritten. Returns the backup path, or "" when there is nothing to
// back up or backups are not configured.
func (c *Coordinator) backupMaster() (string, error) {
	if c.backupDir == "" {
		return "", nil
	}
	if _, err := os.Stat(c.masterPath); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	stem := strings.TrimSuffix(filepath.Base(c.masterPath), filepath.Ext(c.masterPath))
	name := fmt.Sprintf("%s_%s.csv", stem, time.Now().Format(backupTimestampLayout))
	dst := filepath.Join(c.backupDir, name)

	if err := fileutil.CopyFileVerified(c.masterPath, dst); err != nil {
		return "", err
	}
	c.logger.Debug("master backed up", "backup", dst)
	return dst, nil
}

// pruneBackups removes the oldest backups beyond the retention count. A
// retention of zero disables pruning entirely.
func (c *Coordinator) pruneBackups() error {
	if c.retention <= 0 || c.backupDir == "" {
		return nil
	}

	stem := strings.TrimSuffix(filepath.Base(c.masterPath), filepath.Ext(c.masterPath))
	entries, err := os.ReadDir(c.backupDir)
	if err != nil {
		return err
	}

	var backups []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, stem+"_") && strings.HasSuffix(name, ".csv") {
			backups = append(backups, name)
		}
	}
	if len(backups) <= c.retention {
		return nil
	}

	// Timestamped names sort chronologically, oldest first.
	sort.Strings(backups)
	for _, name := range backups[:len(backups)-c.retention] {
		path := filepath.Join(c.backupDir, name)
		if err := os.Remove(path); err != nil {
			return err
		}
		c.logger.Debug("pruned old backup", "backup", path)
	}
	return nil
}
