package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"greenkeep/cmd/client/cmd/auth"
	"greenkeep/cmd/client/cmd/record"
	"greenkeep/cmd/client/cmd/sync"
	"greenkeep/cmd/client/cmd/types"
	"greenkeep/internal/app/client"
	"greenkeep/internal/app/client/config"
	"greenkeep/internal/utils/logger"
)

var (
	cfgFile   string
	serverURL string
	tenantID  string
	debug     bool

	cfg *config.Config
	log *slog.Logger
	app *client.App
)

var rootCmd = &cobra.Command{
	Use:   "greenkeep",
	Short: "GreenKeep - офлайн-клиент для обслуживания гольф-полей",
	Long: `GreenKeep хранит зоны, задачи, команду, технику и склад локально
и синхронизирует изменения с сервером, когда есть связь.

Изменения, сделанные без сети, копятся в очереди и отправляются
командой sync или в фоне (sync --watch).`,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: closeApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Переопределяем настройки из флагов командной строки
	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}
	if tenantID != "" {
		cfg.TenantID = tenantID
	}
	if debug {
		cfg.Env = "local"
	}

	log = logger.New(cfg.Env)

	app, err = client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}

	cmd.SetContext(context.WithValue(cmd.Context(), types.ClientAppKey, app))
	return nil
}

func closeApp(_ *cobra.Command, _ []string) error {
	if app == nil {
		return nil
	}
	return app.Close()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "конфигурационный файл")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "адрес сервера GreenKeep")
	rootCmd.PersistentFlags().StringVar(&tenantID, "tenant", "", "id или slug тенанта (для superadmin)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "включить отладочный режим")
	rootCmd.PersistentFlags().BoolVar(&types.JSONOutput, "json", false, "вывод в формате JSON")

	rootCmd.AddCommand(auth.LoginCmd)
	rootCmd.AddCommand(auth.LogoutCmd)
	rootCmd.AddCommand(auth.WhoamiCmd)

	rootCmd.AddCommand(record.RecordCmd)
	record.RecordCmd.AddCommand(record.CreateCmd)
	record.RecordCmd.AddCommand(record.UpdateCmd)
	record.RecordCmd.AddCommand(record.DeleteCmd)
	record.RecordCmd.AddCommand(record.GetCmd)
	record.RecordCmd.AddCommand(record.ListCmd)

	rootCmd.AddCommand(sync.SyncCmd)
}
