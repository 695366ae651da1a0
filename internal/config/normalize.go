package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMerge()
	c.normalizeCSV()
	c.normalizeStability()
	c.normalizeWatch()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WatchDir, err = ExpandPath(c.Paths.WatchDir); err != nil {
		return fmt.Errorf("paths.watch_dir: %w", err)
	}
	if c.Paths.ArchiveDir, err = ExpandPath(c.Paths.ArchiveDir); err != nil {
		return fmt.Errorf("paths.archive_dir: %w", err)
	}
	if c.Paths.BackupDir, err = ExpandPath(c.Paths.BackupDir); err != nil {
		return fmt.Errorf("paths.backup_dir: %w", err)
	}
	if c.Paths.MergedFile, err = ExpandPath(c.Paths.MergedFile); err != nil {
		return fmt.Errorf("paths.merged_file: %w", err)
	}
	if c.Paths.MetadataFile, err = ExpandPath(c.Paths.MetadataFile); err != nil {
		return fmt.Errorf("paths.metadata_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.JournalFile) == "" {
		c.Paths.JournalFile = defaultJournalFile
	}
	if c.Paths.JournalFile, err = ExpandPath(c.Paths.JournalFile); err != nil {
		return fmt.Errorf("paths.journal_file: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMerge() {
	c.Merge.KeyColumn = strings.TrimSpace(c.Merge.KeyColumn)

	required := make([]string, 0, len(c.Merge.RequiredColumns))
	seen := make(map[string]struct{}, len(c.Merge.RequiredColumns))
	for _, col := range c.Merge.RequiredColumns {
		trimmed := strings.TrimSpace(col)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		required = append(required, trimmed)
	}
	c.Merge.RequiredColumns = required

	if c.Merge.MaxKeysInLog <= 0 {
		c.Merge.MaxKeysInLog = defaultMaxKeysInLog
	}
}

func (c *Config) normalizeCSV() {
	if c.CSV.Delimiter == "" {
		c.CSV.Delimiter = defaultDelimiter
	}
	c.CSV.Encoding = strings.ToLower(strings.TrimSpace(c.CSV.Encoding))
	if c.CSV.Encoding == "" {
		c.CSV.Encoding = defaultEncoding
	}

	exts := make([]string, 0, len(c.CSV.SupportedExtensions))
	seen := make(map[string]struct{}, len(c.CSV.SupportedExtensions))
	for _, ext := range c.CSV.SupportedExtensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = []string{".csv"}
	}
	c.CSV.SupportedExtensions = exts
}

func (c *Config) normalizeStability() {
	if c.Stability.ChunkSize <= 0 {
		c.Stability.ChunkSize = defaultChunkSize
	}
	if c.Stability.MaxFileSizeMB <= 0 {
		c.Stability.MaxFileSizeMB = defaultMaxFileSizeMB
	}
}

func (c *Config) normalizeWatch() {
	if c.Watch.RescanIntervalSeconds <= 0 {
		c.Watch.RescanIntervalSeconds = defaultRescanSeconds
	}
	if c.Watch.DebounceMillis <= 0 {
		c.Watch.DebounceMillis = defaultDebounceMillis
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
