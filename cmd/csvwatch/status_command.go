package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"csvwatch/internal/metadata"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the master dataset summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			info, err := os.Stat(cfg.Paths.MergedFile)
			if os.IsNotExist(err) {
				fmt.Fprintf(out, "No master dataset yet at %s\n", cfg.Paths.MergedFile)
				return nil
			}
			if err != nil {
				return fmt.Errorf("stat master file: %w", err)
			}

			rows := [][]string{
				{"Master file", cfg.Paths.MergedFile},
				{"Size", strconv.FormatInt(info.Size(), 10) + " bytes"},
				{"Modified", info.ModTime().Format(time.RFC3339)},
			}

			summary, err := metadata.Read(cfg.Paths.MetadataFile)
			if err != nil {
				fmt.Fprintf(out, "warn: metadata unavailable: %v\n", err)
			} else {
				rows = append(rows,
					[]string{"Rows", strconv.Itoa(summary.RowCount)},
					[]string{"Columns", strconv.Itoa(summary.ColumnCount)},
					[]string{"Schema", strings.Join(summary.Columns, ", ")},
					[]string{"Last updated", summary.LastUpdated},
				)
			}

			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows))
			return nil
		},
	}
}
