package config

const (
	defaultWatchDir            = "~/.local/share/csvwatch/inbox"
	defaultArchiveDir          = "~/.local/share/csvwatch/archive"
	defaultBackupDir           = "~/.local/share/csvwatch/backups"
	defaultMergedFile          = "~/.local/share/csvwatch/master.csv"
	defaultMetadataFile        = "~/.local/share/csvwatch/master_metadata.json"
	defaultJournalFile         = "~/.local/share/csvwatch/journal.db"
	defaultLogDir              = "~/.local/share/csvwatch/logs"
	defaultKeyColumn           = "cluster_name"
	defaultMaxKeysInLog        = 20
	defaultDelimiter           = ","
	defaultEncoding            = "utf-8"
	defaultChecksumWaitSeconds = 5
	defaultChunkSize           = 4096
	defaultMaxFileSizeMB       = 500
	defaultLockTimeoutSeconds  = 30
	defaultBackupRetention     = 5
	defaultRescanSeconds       = 60
	defaultDebounceMillis      = 500
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WatchDir:     defaultWatchDir,
			ArchiveDir:   defaultArchiveDir,
			BackupDir:    defaultBackupDir,
			MergedFile:   defaultMergedFile,
			MetadataFile: defaultMetadataFile,
			JournalFile:  defaultJournalFile,
			LogDir:       defaultLogDir,
		},
		Merge: Merge{
			KeyColumn:    defaultKeyColumn,
			MaxKeysInLog: defaultMaxKeysInLog,
		},
		CSV: CSV{
			Delimiter:           defaultDelimiter,
			Encoding:            defaultEncoding,
			SupportedExtensions: []string{".csv"},
		},
		Stability: Stability{
			ChecksumWaitSeconds: defaultChecksumWaitSeconds,
			ChunkSize:           defaultChunkSize,
			MaxFileSizeMB:       defaultMaxFileSizeMB,
		},
		Lock: Lock{
			TimeoutSeconds: defaultLockTimeoutSeconds,
		},
		Backup: Backup{
			RetentionCount: defaultBackupRetention,
		},
		Watch: Watch{
			RescanIntervalSeconds: defaultRescanSeconds,
			DebounceMillis:        defaultDebounceMillis,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			MergeCompleted: true,
			FileFailed:     true,
			RunSummary:     true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
