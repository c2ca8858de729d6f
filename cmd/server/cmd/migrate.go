package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"greenkeep/internal/app/server/config"
	"greenkeep/internal/infrastructure/migration"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Применить миграции общей схемы",
	Long: `Накатывает миграции таблиц тенантов и пользователей.

Разделы тенантов мигрируются автоматически при первом обращении к ним.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		if cfg.Storage.Driver != config.DriverPostgres {
			return fmt.Errorf("миграции нужны только для драйвера %s", config.DriverPostgres)
		}

		mg := migration.NewMigration(nil, log)
		if err := mg.Up(cfg.GlobalMigrations(), cfg.DB.DatabaseURI); err != nil {
			return fmt.Errorf("ошибка миграции: %w", err)
		}
		fmt.Println("✓ Миграции применены")
		return nil
	},
}
