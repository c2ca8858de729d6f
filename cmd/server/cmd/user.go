package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"greenkeep/internal/app/server"
	"greenkeep/internal/domain/user"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Управление пользователями",
}

var (
	userRole      string
	userTenant    string
	userFirstName string
	userLastName  string
)

var userCreateCmd = &cobra.Command{
	Use:   "create <email>",
	Short: "Создать пользователя",
	Long: `Создает пользователя с ролью superadmin, admin или team.

Для admin и team нужен --tenant (id или slug). Пароль запрашивается
интерактивно или берется из GREENKEEP_PASSWORD.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, app *server.App, args []string) error {
		password, err := readPassword()
		if err != nil {
			return err
		}

		tenantID := userTenant
		if tenantID != "" {
			p, err := app.Router.Resolve(ctx, tenantID)
			if err != nil {
				return fmt.Errorf("тенант %s: %w", tenantID, err)
			}
			tenantID = p.Tenant.ID
		}

		u, err := app.Users.Register(ctx, user.RegisterInput{
			Email:     args[0],
			Password:  password,
			FirstName: userFirstName,
			LastName:  userLastName,
			Role:      user.Role(userRole),
			TenantID:  tenantID,
		})
		if err != nil {
			return err
		}
		fmt.Printf("✓ Пользователь создан: %s (%s, %s)\n", u.Email, u.Role, u.ID)
		return nil
	}),
}

func readPassword() (string, error) {
	if p := os.Getenv("GREENKEEP_PASSWORD"); p != "" {
		return p, nil
	}

	fmt.Print("Пароль: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("ошибка чтения пароля: %w", err)
	}
	return strings.TrimSpace(string(password)), nil
}

func init() {
	userCreateCmd.Flags().StringVar(&userRole, "role", string(user.RoleTeam), "роль: superadmin, admin, team")
	userCreateCmd.Flags().StringVar(&userTenant, "tenant", "", "тенант (id или slug)")
	userCreateCmd.Flags().StringVar(&userFirstName, "first-name", "", "имя")
	userCreateCmd.Flags().StringVar(&userLastName, "last-name", "", "фамилия")

	userCmd.AddCommand(userCreateCmd)
}
