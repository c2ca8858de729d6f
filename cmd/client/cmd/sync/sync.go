package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"greenkeep/cmd/client/cmd/types"
	"greenkeep/internal/app/client"
	"greenkeep/internal/app/client/offline"
)

var (
	syncStatus    bool
	showConflicts bool
	showPending   bool
	resolveSeq    int64
	resolveUse    string
	dropSeq       int64
	watch         bool
)

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Управление синхронизацией",
	Long: `Синхронизация данных между клиентом и сервером.

Без флагов выполняет один цикл: отправка очереди изменений, затем получение
изменений с сервера. Отклоненные из-за конфликта изменения остаются в очереди,
пока их не разрешить через --resolve. Изменение, которое сервер не может
принять, можно отменить через --drop: локальная копия заменится серверной.`,
	Example: `  greenkeep sync
  greenkeep sync --status
  greenkeep sync --conflicts
  greenkeep sync --resolve 12 --use server
  greenkeep sync --drop 7
  greenkeep sync --watch`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		switch {
		case syncStatus:
			return showSyncStatus(cmd.Context(), app)
		case showConflicts:
			return showSyncConflicts(cmd.Context(), app)
		case showPending:
			return showPendingMutations(cmd.Context(), app)
		case cmd.Flags().Changed("resolve"):
			return resolveConflict(cmd.Context(), app)
		case cmd.Flags().Changed("drop"):
			return dropMutation(cmd.Context(), app)
		case watch:
			return runWatch(cmd.Context(), app)
		}

		return runSync(cmd.Context(), app)
	},
}

func runSync(ctx context.Context, app *client.App) error {
	fmt.Println("=== Синхронизация данных ===")

	result, err := app.Sync(ctx)
	if err != nil {
		if errors.Is(err, client.ErrOffline) {
			return fmt.Errorf("сервер недоступен, изменения остаются в очереди: %w", err)
		}
		return fmt.Errorf("ошибка синхронизации: %w", err)
	}

	if types.JSONOutput {
		return types.PrintJSON(result)
	}

	fmt.Println()
	fmt.Println("✅ Синхронизация завершена!")
	fmt.Printf("Время выполнения: %v\n", result.Duration.Round(time.Millisecond))
	fmt.Printf("Отправлено изменений: %d (принято %d, отклонено %d)\n", result.Pushed, result.Accepted, result.Rejected)
	fmt.Printf("Получено с сервера: %d записей\n", result.Pulled)
	if result.Conflicts > 0 {
		fmt.Printf("⚠️  Конфликтов: %d. Просмотр: greenkeep sync --conflicts\n", result.Conflicts)
	}
	return nil
}

func runWatch(ctx context.Context, app *client.App) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Фоновая синхронизация запущена. Ctrl+C для остановки.")
	return app.Watch(ctx)
}

func showSyncStatus(ctx context.Context, app *client.App) error {
	st, err := app.Status(ctx)
	if err != nil {
		return err
	}
	if err := app.CheckConnection(ctx); err == nil {
		st.Online = true
	}

	if types.JSONOutput {
		return types.PrintJSON(st)
	}

	fmt.Println("=== Статус синхронизации ===")
	if st.Session != nil {
		fmt.Printf("Пользователь: %s (%s)\n", st.Session.User.Email, st.Session.User.Role)
	} else {
		fmt.Println("Пользователь: вход не выполнен")
	}
	if st.Online {
		fmt.Println("Сервер: доступен")
	} else {
		fmt.Println("Сервер: недоступен")
	}
	fmt.Printf("Изменений в очереди: %d\n", st.Pending)
	fmt.Printf("Конфликтов: %d\n", st.Conflicts)

	if len(st.Checkpoints) > 0 {
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Коллекция\tВерсия\t\n")
		names := make([]string, 0, len(st.Checkpoints))
		for name := range st.Checkpoints {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "%s\t%d\t\n", name, st.Checkpoints[name])
		}
		return w.Flush()
	}
	return nil
}

func showSyncConflicts(ctx context.Context, app *client.App) error {
	conflicts, err := app.Conflicts(ctx)
	if err != nil {
		return err
	}
	if types.JSONOutput {
		return types.PrintJSON(conflicts)
	}
	if len(conflicts) == 0 {
		fmt.Println("Конфликтов нет")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Seq\tКоллекция\tID\tПричина\tВерсия сервера\tОбнаружен\t\n")
	for _, c := range conflicts {
		version := "-"
		if c.ServerRecord != nil {
			version = fmt.Sprint(c.ServerRecord.Version)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t\n",
			c.Seq, c.Collection, c.RecordKey, c.Reason, version,
			c.DetectedAt.Local().Format(time.DateTime))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Разрешить: greenkeep sync --resolve <seq> --use server|client")
	return nil
}

func showPendingMutations(ctx context.Context, app *client.App) error {
	pending, err := app.PendingMutations(ctx)
	if err != nil {
		return err
	}
	if types.JSONOutput {
		return types.PrintJSON(pending)
	}
	if len(pending) == 0 {
		fmt.Println("Очередь пуста")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Seq\tКоллекция\tОперация\tID\tОшибка\t\n")
	for _, m := range pending {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t\n", m.Seq, m.Collection, m.Operation, m.RecordKey, m.LastReason)
	}
	return w.Flush()
}

func resolveConflict(ctx context.Context, app *client.App) error {
	if resolveUse != offline.ResolveServer && resolveUse != offline.ResolveClient {
		return fmt.Errorf("--use должен быть %q или %q", offline.ResolveServer, offline.ResolveClient)
	}
	if err := app.ResolveConflict(ctx, resolveSeq, resolveUse); err != nil {
		return fmt.Errorf("ошибка разрешения конфликта: %w", err)
	}

	fmt.Printf("✓ Конфликт %d разрешен (%s)\n", resolveSeq, resolveUse)
	if resolveUse == offline.ResolveClient {
		fmt.Println("Локальная версия будет отправлена при следующей синхронизации.")
	}
	return nil
}

func dropMutation(ctx context.Context, app *client.App) error {
	if err := app.DiscardMutation(ctx, dropSeq); err != nil {
		if errors.Is(err, offline.ErrMutationNotFound) {
			return fmt.Errorf("изменение %d не найдено в очереди, см. greenkeep sync --pending", dropSeq)
		}
		return fmt.Errorf("ошибка отмены изменения: %w", err)
	}

	fmt.Printf("✓ Изменение %d отменено\n", dropSeq)
	fmt.Println("Серверная версия записи будет получена при следующей синхронизации.")
	return nil
}

func init() {
	SyncCmd.Flags().BoolVar(&syncStatus, "status", false, "показать статус синхронизации")
	SyncCmd.Flags().BoolVar(&showConflicts, "conflicts", false, "показать конфликты")
	SyncCmd.Flags().BoolVar(&showPending, "pending", false, "показать очередь изменений")
	SyncCmd.Flags().Int64Var(&resolveSeq, "resolve", 0, "разрешить конфликт с указанным seq")
	SyncCmd.Flags().StringVar(&resolveUse, "use", offline.ResolveServer, "чья версия побеждает: server или client")
	SyncCmd.Flags().Int64Var(&dropSeq, "drop", 0, "отменить изменение с указанным seq из очереди")
	SyncCmd.Flags().BoolVar(&watch, "watch", false, "синхронизировать в фоне до остановки")
}
