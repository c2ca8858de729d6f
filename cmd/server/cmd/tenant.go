package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"greenkeep/internal/app/server"
	"greenkeep/internal/domain/tenant"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Управление тенантами",
}

var tenantName string

var tenantCreateCmd = &cobra.Command{
	Use:   "create <slug>",
	Short: "Создать тенанта и его раздел данных",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, app *server.App, args []string) error {
		name := tenantName
		if name == "" {
			name = args[0]
		}
		t, err := app.Tenants.Create(ctx, args[0], name)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Тенант создан: %s (%s)\n", t.Slug, t.ID)
		return nil
	}),
}

var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список тенантов",
	RunE: withApp(func(ctx context.Context, app *server.App, _ []string) error {
		tenants, err := app.Tenants.List(ctx)
		if err != nil {
			return err
		}
		printTenants(tenants)
		return nil
	}),
}

var tenantSuspendCmd = &cobra.Command{
	Use:   "suspend <id|slug>",
	Short: "Приостановить тенанта",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, app *server.App, args []string) error {
		t, err := app.Tenants.Suspend(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ Тенант %s приостановлен\n", t.Slug)
		return nil
	}),
}

var tenantActivateCmd = &cobra.Command{
	Use:   "activate <id|slug>",
	Short: "Активировать тенанта",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, app *server.App, args []string) error {
		t, err := app.Tenants.Activate(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ Тенант %s активирован\n", t.Slug)
		return nil
	}),
}

func printTenants(tenants []tenant.Tenant) {
	if len(tenants) == 0 {
		fmt.Println("Тенантов нет")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSLUG\tNAME\tACTIVE\tCREATED")
	for _, t := range tenants {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", t.ID, t.Slug, t.Name, t.IsActive, t.CreatedAt.Format("2006-01-02"))
	}
	w.Flush()
}

// withApp открывает хранилище на время одной команды.
func withApp(run func(ctx context.Context, app *server.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := server.New(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer app.Close()
		return run(ctx, app, args)
	}
}

func init() {
	tenantCreateCmd.Flags().StringVar(&tenantName, "name", "", "отображаемое имя (по умолчанию slug)")

	tenantCmd.AddCommand(tenantCreateCmd)
	tenantCmd.AddCommand(tenantListCmd)
	tenantCmd.AddCommand(tenantSuspendCmd)
	tenantCmd.AddCommand(tenantActivateCmd)
}
