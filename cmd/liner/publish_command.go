package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"liner/internal/catalog"
	"liner/internal/gateway"
	"liner/internal/logging"
	"liner/internal/publish"
	"liner/internal/services/textgen"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Run one publish run immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := catalog.ParseRunKind(kindFlag)
			if !ok {
				return fmt.Errorf("unknown run kind %q (expected %s or %s)",
					kindFlag, catalog.RunKindDigest, catalog.RunKindAlbumOfDay)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open catalog store: %w", err)
			}
			defer store.Close()

			client := textgen.NewClient(textgen.ConfigFromApp(cfg))
			gw := gateway.New(client, gateway.OptionsFromApp(cfg, logger))
			runner := publish.NewRunner(cfg, store, gw, nil, logger, publish.Options{})

			run, err := runner.Run(cmd.Context(), kind, catalog.TriggerManual)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s finished with status %s\n", run.UID, run.Status)
			fmt.Fprintf(out, "Selected %d entries (%d enriched, %d degraded, %d anomalies)\n",
				run.EntriesSelected, run.EnrichedCount, run.DegradedCount, run.AnomalyCount)
			if run.ArtifactPath != "" {
				fmt.Fprintf(out, "Artifact: %s\n", run.ArtifactPath)
			}
			if run.Status == catalog.RunStatusFailed {
				return fmt.Errorf("run failed: %s: %s", run.ErrorKind, run.ErrorMessage)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "kind", "k", string(catalog.RunKindDigest), "Run kind (digest or album-of-day)")
	return cmd
}
