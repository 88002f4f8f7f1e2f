package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"liner/internal/catalog"
	"liner/internal/daemon"
	"liner/internal/gateway"
	"liner/internal/logging"
	"liner/internal/publish"
	"liner/internal/services/textgen"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the publishing daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
				logging.RetentionTarget{
					Dir:     cfg.Paths.LogDir,
					Pattern: "liner*.log",
					Exclude: []string{filepath.Join(cfg.Paths.LogDir, "liner.log")},
				},
			)

			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open catalog store: %w", err)
			}

			client := textgen.NewClient(textgen.ConfigFromApp(cfg))
			gw := gateway.New(client, gateway.OptionsFromApp(cfg, logger))
			runner := publish.NewRunner(cfg, store, gw, nil, logger, publish.Options{})

			d, err := daemon.New(cfg, store, runner, logger)
			if err != nil {
				_ = store.Close()
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Close()

			if err := d.Start(signalCtx); err != nil {
				return err
			}

			<-signalCtx.Done()
			logger.Info("liner daemon shutting down")
			return nil
		},
	}
}
