package testsupport

import (
	"path/filepath"
	"testing"

	"csvwatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields, applies any provided options, and creates every
// directory the config references.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WatchDir = filepath.Join(base, "incoming")
	cfgVal.Paths.ArchiveDir = filepath.Join(base, "archive")
	cfgVal.Paths.BackupDir = filepath.Join(base, "backups")
	cfgVal.Paths.MergedFile = filepath.Join(base, "master", "master.csv")
	cfgVal.Paths.MetadataFile = filepath.Join(base, "master", "master.meta.json")
	cfgVal.Paths.JournalFile = filepath.Join(base, "journal.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Merge.KeyColumn = "cluster_name"
	cfgVal.Stability.ChecksumWaitSeconds = 0
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	return builder.cfg
}

// WithKeyColumn overrides the merge key column on the test config.
func WithKeyColumn(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Merge.KeyColumn = name
	}
}

// WithRequiredColumns sets the required-columns validation list.
func WithRequiredColumns(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Merge.RequiredColumns = names
	}
}

// WithSortOutput enables stable key ordering of the written master file.
func WithSortOutput() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Merge.SortOutput = true
	}
}

// WithBackupRetention sets the backup retention count.
func WithBackupRetention(count int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backup.RetentionCount = count
	}
}

// WithNtfyTopic points notifications at the given topic URL.
func WithNtfyTopic(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = url
		b.cfg.Notifications.MergeCompleted = true
		b.cfg.Notifications.FileFailed = true
		b.cfg.Notifications.RunSummary = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WatchDir)
}
