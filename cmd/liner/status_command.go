package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"liner/internal/catalog"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show catalog and publisher status",
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

			out := cmd.OutOrStdout()

			healthy := true
			if err := store.Health(cmd.Context()); err != nil {
				healthy = false
			}
			fmt.Fprintf(out, "Database: %s\n", store.Path())
			fmt.Fprintf(out, "Database healthy: %s\n", yesNo(healthy))
			fmt.Fprintf(out, "Output directory: %s\n", cfg.Paths.OutputDir)

			counts, err := store.CountByProvenance(cmd.Context())
			if err != nil {
				return err
			}
			total := 0
			for _, provenance := range catalog.AllProvenances() {
				count := counts[provenance]
				total += count
				fmt.Fprintf(out, "  %-20s %d\n", provenance, count)
			}
			fmt.Fprintf(out, "Entries total: %d\n", total)

			lastRun, err := store.LastRun(cmd.Context())
			if err != nil {
				if errors.Is(err, catalog.ErrNotFound) {
					fmt.Fprintln(out, "Last run: none")
					return nil
				}
				return err
			}
			fmt.Fprintf(out, "Last run: %s %s (%s) started %s\n",
				lastRun.Kind, lastRun.Status, lastRun.Trigger,
				lastRun.StartedAt.UTC().Format(time.RFC3339))
			if lastRun.ArtifactPath != "" {
				fmt.Fprintf(out, "Last artifact: %s\n", lastRun.ArtifactPath)
			}
			if lastRun.ErrorKind != "" {
				fmt.Fprintf(out, "Last error: %s: %s\n", lastRun.ErrorKind, lastRun.ErrorMessage)
			}
			return nil
		},
	}
}
