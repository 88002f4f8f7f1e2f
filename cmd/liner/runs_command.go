package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"liner/internal/catalog"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent publish runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open catalog store: %w", err)
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No publish runs recorded")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				finished := ""
				if run.FinishedAt != nil {
					finished = run.FinishedAt.UTC().Format(time.RFC3339)
				}
				rows = append(rows, []string{
					strconv.FormatInt(run.ID, 10),
					string(run.Kind),
					string(run.Trigger),
					string(run.Status),
					run.StartedAt.UTC().Format(time.RFC3339),
					finished,
					strconv.Itoa(run.EntriesSelected),
					strconv.Itoa(run.DegradedCount),
					strconv.Itoa(run.AnomalyCount),
					string(run.BreakerState),
					run.ErrorKind,
				})
			}
			headers := []string{"ID", "Kind", "Trigger", "Status", "Started", "Finished", "Selected", "Degraded", "Anomalies", "Breaker", "Error"}
			if isTerminal(out) {
				fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{
					alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft,
					alignRight, alignRight, alignRight, alignLeft, alignLeft,
				}))
				return nil
			}
			for _, row := range rows {
				fmt.Fprintln(out, strings.Join(row, "\t"))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}
