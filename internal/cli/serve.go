package cli

import (
	"context"

	"github.com/foodtrack/api/internal/infrastructure/container"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			app := container.New(cfg, log)
			if err := app.Err(); err != nil {
				return err
			}

			ctx := cmd.Context()
			startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
			defer cancel()
			if err := app.Start(startCtx); err != nil {
				return err
			}

			select {
			case <-ctx.Done():
			case sig := <-app.Wait():
				log.Info("Shutdown requested", zap.Int("exit_code", sig.ExitCode))
			}

			stopCtx, stop := context.WithTimeout(context.Background(), app.StopTimeout())
			defer stop()
			return app.Stop(stopCtx)
		},
	}
}
