package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory configuration.
type Paths struct {
	WatchDir     string `toml:"watch_dir"`
	ArchiveDir   string `toml:"archive_dir"`
	BackupDir    string `toml:"backup_dir"`
	MergedFile   string `toml:"merged_file"`
	MetadataFile string `toml:"metadata_file"`
	JournalFile  string `toml:"journal_file"`
	LogDir       string `toml:"log_dir"`
}

// Merge contains configuration for the key-based merge.
type Merge struct {
	KeyColumn       string   `toml:"key_column"`
	RequiredColumns []string `toml:"required_columns"`
	SortOutput      bool     `toml:"sort_output"`
	MaxKeysInLog    int      `toml:"max_keys_in_log"`
}

// CSV contains configuration for reading and writing tabular files.
type CSV struct {
	Delimiter           string   `toml:"delimiter"`
	Encoding            string   `toml:"encoding"`
	SupportedExtensions []string `toml:"supported_extensions"`
}

// Stability contains configuration for the double-checksum stability check.
type Stability struct {
	ChecksumWaitSeconds int `toml:"checksum_wait_seconds"`
	ChunkSize           int `toml:"chunk_size"`
	MaxFileSizeMB       int `toml:"max_file_size_mb"`
}

// Lock contains configuration for the cross-process master file lock.
type Lock struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Backup contains configuration for master file backups.
type Backup struct {
	// RetentionCount bounds how many timestamped backups are kept.
	// Zero disables pruning and retains all backups.
	RetentionCount int `toml:"retention_count"`
}

// Watch contains configuration for the continuous watch mode.
type Watch struct {
	RescanIntervalSeconds int `toml:"rescan_interval_seconds"`
	DebounceMillis        int `toml:"debounce_ms"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	MergeCompleted bool   `toml:"merge_completed"`
	FileFailed     bool   `toml:"file_failed"`
	RunSummary     bool   `toml:"run_summary"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for csvwatch.
//
// Configuration sections by subsystem:
//   - Paths: watch/archive/backup directories and master file locations
//   - Merge: key column, required columns, output ordering
//   - CSV: delimiter, text encoding, accepted extensions
//   - Stability: checksum chunking, wait interval, size cap
//   - Lock: advisory lock timeout for the master file
//   - Backup: retention of pre-overwrite master copies
//   - Watch: fsnotify debounce and rescan interval for watch mode
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Merge         Merge         `toml:"merge"`
	CSV           CSV           `toml:"csv"`
	Stability     Stability     `toml:"stability"`
	Lock          Lock          `toml:"lock"`
	Backup        Backup        `toml:"backup"`
	Watch         Watch         `toml:"watch"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/csvwatch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("csvwatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run needs before any file is touched.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.WatchDir, c.Paths.ArchiveDir, c.Paths.BackupDir, c.Paths.LogDir}
	for _, dir := range []string{filepath.Dir(c.Paths.MergedFile), filepath.Dir(c.Paths.MetadataFile), filepath.Dir(c.Paths.JournalFile)} {
		dirs = append(dirs, dir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the advisory lock marker associated with the master file.
func (c *Config) LockPath() string {
	return c.Paths.MergedFile + ".lock"
}

// MaxFileSizeBytes returns the stability size cap in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.Stability.MaxFileSizeMB) * 1024 * 1024
}

// ChecksumWait returns the interval between the two stability checksum passes.
func (c *Config) ChecksumWait() time.Duration {
	return time.Duration(c.Stability.ChecksumWaitSeconds) * time.Second
}

// LockTimeout returns how long a commit may wait for the master file lock.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.Lock.TimeoutSeconds) * time.Second
}

// DelimiterRune returns the CSV delimiter as a rune.
func (c *Config) DelimiterRune() rune {
	for _, r := range c.CSV.Delimiter {
		return r
	}
	return ','
}

// RescanInterval returns the watch-mode periodic rescan interval.
func (c *Config) RescanInterval() time.Duration {
	return time.Duration(c.Watch.RescanIntervalSeconds) * time.Second
}

// Debounce returns the watch-mode event debounce window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMillis) * time.Millisecond
}

// SampleConfig returns the embedded sample configuration file contents.
func SampleConfig() string {
	return sampleConfig
}

// ExpandPath resolves a leading tilde and returns a cleaned absolute path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
