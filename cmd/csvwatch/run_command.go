package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"csvwatch/internal/journal"
	"csvwatch/internal/logging"
	"csvwatch/internal/monitor"
	"csvwatch/internal/notifications"
	"csvwatch/internal/preflight"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var sortOutput bool
	var backupCount int
	var showProgress bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan the watch directory once and merge every stable file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("sort-output") {
				cfg.Merge.SortOutput = sortOutput
			}
			if cmd.Flags().Changed("backup-count") {
				if backupCount < 0 {
					return fmt.Errorf("backup-count must be zero or positive")
				}
				cfg.Backup.RetentionCount = backupCount
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			m, store, err := buildMonitor(ctx, monitor.Options{DryRun: dryRun})
			if err != nil {
				return err
			}
			defer store.Close()

			var tracker *progress.Tracker
			var pw progress.Writer
			if showProgress && isatty.IsTerminal(os.Stdout.Fd()) {
				pw = progress.NewWriter()
				pw.SetOutputWriter(cmd.OutOrStdout())
				pw.SetUpdateFrequency(100 * time.Millisecond)
				tracker = &progress.Tracker{Message: "Scanning " + cfg.Paths.WatchDir}
				pw.AppendTracker(tracker)
				go pw.Render()
			}

			result, err := m.ProcessAll(signalCtx)
			if pw != nil {
				tracker.MarkAsDone()
				pw.Stop()
				for pw.IsRenderInProgress() {
					time.Sleep(10 * time.Millisecond)
				}
			}
			if err != nil {
				return err
			}

			printRunSummary(cmd, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and log merges without writing, archiving, or backing up")
	cmd.Flags().BoolVar(&sortOutput, "sort-output", false, "Sort master rows by key column when writing")
	cmd.Flags().IntVar(&backupCount, "backup-count", 0, "Override how many master backups to retain (0 keeps all)")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Show a progress indicator while scanning")
	return cmd
}

// buildMonitor wires the shared run/watch dependencies: logger, preflight
// checks, journal store, notifier, and the monitor itself. The caller owns
// closing the returned store.
func buildMonitor(ctx *commandContext, opts monitor.Options) (*monitor.Monitor, *journal.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	results := preflight.RunAll(context.Background(), cfg)
	for _, r := range results {
		if !r.Passed {
			return nil, nil, fmt.Errorf("preflight check %q failed: %s", r.Name, r.Detail)
		}
	}

	store, err := journal.Open(cfg.Paths.JournalFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}

	notifier := notifications.NewService(cfg)
	m, err := monitor.New(cfg, logger, store, notifier, opts)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return m, store, nil
}

func printRunSummary(cmd *cobra.Command, result *monitor.RunResult) {
	out := cmd.OutOrStdout()
	if len(result.Files) == 0 {
		fmt.Fprintln(out, "No stable files found.")
		return
	}

	rows := make([][]string, 0, len(result.Files))
	for _, f := range result.Files {
		detail := ""
		if f.Err != nil {
			detail = f.Err.Error()
		}
		rows = append(rows, []string{filepath.Base(f.Path), string(f.Outcome), detail})
	}
	fmt.Fprintln(out, renderTable([]string{"File", "Outcome", "Detail"}, rows))
	fmt.Fprintf(out, "Merged %s, skipped %s, failed %s in %s\n",
		strconv.Itoa(result.Merged), strconv.Itoa(result.Skipped), strconv.Itoa(result.Failed),
		result.Duration.Round(time.Millisecond))
}
