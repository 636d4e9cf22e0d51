package main

import (
	"arb_gateway/internal/modules/config"
	"arb_gateway/internal/modules/health"
	"arb_gateway/internal/modules/storage"
	telegram "arb_gateway/internal/modules/telegram_bot"
	"arb_gateway/internal/modules/tracing"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the command session, notification API and admin HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := fx.New(
			fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
				return &fxevent.ZapLogger{Logger: log.Named("fx")}
			}),
			config.Module(),
			storage.Module(),
			tracing.Module(),
			telegram.Module(),
			health.Module(),
		)
		if err := app.Err(); err != nil {
			return err
		}
		// Run блокируется до SIGINT/SIGTERM
		app.Run()
		return nil
	},
}
