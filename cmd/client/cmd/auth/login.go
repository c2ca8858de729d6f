package auth

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"greenkeep/cmd/client/cmd/types"
)

var (
	loginEmail string
	skipSync   bool
)

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Войти в систему GreenKeep",
	Long: `Аутентификация на сервере GreenKeep.

После входа токен сохраняется локально, и выполняется первая синхронизация.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		email := loginEmail
		if email == "" {
			fmt.Print("Email: ")
			_, _ = fmt.Scanln(&email)
		}
		email = strings.TrimSpace(email)
		if email == "" {
			return fmt.Errorf("email не указан")
		}

		password := os.Getenv("GREENKEEP_PASSWORD")
		if password == "" {
			fmt.Print("Пароль: ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			if err != nil {
				return fmt.Errorf("ошибка чтения пароля: %w", err)
			}
			fmt.Println()
			password = string(raw)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		s, err := app.Login(ctx, email, password)
		if err != nil {
			return fmt.Errorf("ошибка аутентификации: %w", err)
		}

		fmt.Printf("✅ Вход выполнен: %s (%s)\n", s.User.Email, s.User.Role)
		if skipSync {
			return nil
		}

		fmt.Println("Синхронизация данных...")
		res, err := app.Sync(ctx)
		if err != nil {
			fmt.Printf("⚠️  Предупреждение: ошибка синхронизации: %v\n", err)
			fmt.Println("Вы можете продолжить работу в офлайн-режиме")
			return nil
		}
		fmt.Printf("✓ Получено записей: %d\n", res.Pulled)
		return nil
	},
}

func init() {
	LoginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "email пользователя")
	LoginCmd.Flags().BoolVar(&skipSync, "no-sync", false, "не синхронизировать после входа")
}
