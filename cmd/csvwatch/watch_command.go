package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"csvwatch/internal/monitor"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var sortOutput bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the directory continuously and merge files as they appear",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("sort-output") {
				cfg.Merge.SortOutput = sortOutput
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			m, store, err := buildMonitor(ctx, monitor.Options{DryRun: dryRun})
			if err != nil {
				return err
			}
			defer store.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl-C to stop)\n", cfg.Paths.WatchDir)
			err = m.Watch(signalCtx)
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(cmd.OutOrStdout(), "Stopped.")
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and log merges without writing, archiving, or backing up")
	cmd.Flags().BoolVar(&sortOutput, "sort-output", false, "Sort master rows by key column when writing")
	return cmd
}
