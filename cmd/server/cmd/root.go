package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"greenkeep/internal/app/server/config"
	"greenkeep/internal/utils/logger"
)

var (
	cfg *config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "greenkeep-server",
	Short: "GreenKeep - сервер синхронизации для гольф-клубов",
	Long: `Сервер синхронизации GreenKeep.

Каждый тенант (гольф-клуб) хранит данные в отдельном разделе. Клиенты
работают офлайн и обмениваются изменениями через /api/v1/sync/pull и /push.`,
	PersistentPreRunE: setup,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func setup(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	log = logger.New(cfg.Env)
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tenantCmd)
	rootCmd.AddCommand(userCmd)
}
