package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMerge(); err != nil {
		return err
	}
	if err := c.validateCSV(); err != nil {
		return err
	}
	if err := c.validateStability(); err != nil {
		return err
	}
	if err := c.validateLock(); err != nil {
		return err
	}
	if err := c.validateBackup(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMerge() error {
	if c.Merge.KeyColumn == "" {
		return errors.New("merge.key_column must be set")
	}
	return nil
}

func (c *Config) validateCSV() error {
	if utf8.RuneCountInString(c.CSV.Delimiter) != 1 {
		return fmt.Errorf("csv.delimiter must be a single character, got %q", c.CSV.Delimiter)
	}
	for _, ext := range c.CSV.SupportedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("csv.supported_extensions entries must start with '.', got %q", ext)
		}
	}
	if _, err := htmlindex.Get(c.CSV.Encoding); err != nil {
		return fmt.Errorf("csv.encoding: unknown encoding %q", c.CSV.Encoding)
	}
	return nil
}

func (c *Config) validateStability() error {
	if c.Stability.ChecksumWaitSeconds < 0 {
		return errors.New("stability.checksum_wait_seconds must be >= 0")
	}
	if c.Stability.ChunkSize <= 0 {
		return errors.New("stability.chunk_size must be > 0")
	}
	if c.Stability.MaxFileSizeMB <= 0 {
		return errors.New("stability.max_file_size_mb must be > 0")
	}
	return nil
}

func (c *Config) validateLock() error {
	if c.Lock.TimeoutSeconds < 0 {
		return errors.New("lock.timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateBackup() error {
	if c.Backup.RetentionCount < 0 {
		return errors.New("backup.retention_count must be >= 0")
	}
	return nil
}
