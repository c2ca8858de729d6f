package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"greenkeep/cmd/client/cmd/types"
)

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Выйти из системы",
	Long:  `Удаляет сохраненный токен. Локальные записи и очередь изменений остаются.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		if err := app.Logout(); err != nil {
			return err
		}
		fmt.Println("✓ Выход выполнен")
		return nil
	},
}

var WhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Текущий пользователь",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		s := app.Session()
		if s == nil || !app.IsAuthenticated() {
			return fmt.Errorf("вход не выполнен. Выполните: greenkeep login")
		}
		if types.JSONOutput {
			return types.PrintJSON(s)
		}

		fmt.Printf("Email:   %s\n", s.User.Email)
		fmt.Printf("Роль:    %s\n", s.User.Role)
		if s.User.TenantID != "" {
			fmt.Printf("Тенант:  %s\n", s.User.TenantID)
		}
		fmt.Printf("Сервер:  %s\n", s.Server)
		fmt.Printf("Токен до: %s\n", s.ExpiresAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}
