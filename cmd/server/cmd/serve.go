package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"greenkeep/internal/app/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запустить HTTP сервер",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := server.New(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := app.Close(); err != nil {
				log.Error("close storage", slog.String("error", err.Error()))
			}
		}()

		log.Info("starting greenkeep server",
			slog.String("env", cfg.Env),
			slog.String("storage", cfg.Storage.Driver),
		)
		return app.Run(ctx)
	},
}
