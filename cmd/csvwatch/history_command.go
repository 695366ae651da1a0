package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"csvwatch/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently processed files from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if limit <= 0 {
				return fmt.Errorf("limit must be positive")
			}

			store, err := journal.Open(cfg.Paths.JournalFile)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read journal: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No processed files recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				detail := e.ErrorDetail
				if detail == "" && len(e.ColumnsDropped) > 0 {
					detail = "dropped: " + strings.Join(e.ColumnsDropped, ", ")
				}
				rows = append(rows, []string{
					e.ProcessedAt.Local().Format(time.RFC3339),
					e.FileName,
					string(e.Outcome),
					strconv.Itoa(e.RowCount),
					strconv.Itoa(e.KeysReplaced),
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Processed", "File", "Outcome", "Rows", "Replaced", "Detail"},
				rows,
				4, 5,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")
	return cmd
}
