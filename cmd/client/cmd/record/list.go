package record

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"greenkeep/cmd/client/cmd/types"
	"greenkeep/internal/domain/record"
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список записей коллекции",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		records, err := app.ListRecords(cmd.Context(), collectionName)
		if err != nil {
			return fmt.Errorf("ошибка получения списка записей: %w", err)
		}

		if types.JSONOutput {
			return types.PrintJSON(records)
		}
		return printRecordsTable(records)
	},
}

func printRecordsTable(records []record.Record) error {
	if len(records) == 0 {
		fmt.Println("Записи не найдены")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tНазвание\tВерсия\tСтатус\tОбновлено\t\n")
	fmt.Fprintf(w, "---\t---\t---\t---\t---\t\n")

	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t\n",
			rec.Key(),
			title(rec),
			rec.Version,
			syncState(rec.ID, rec.Deleted),
			rec.UpdatedAt.Local().Format(time.DateTime),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nВсего: %d\n", len(records))
	return nil
}

// title - поле, по которому запись узнается в списке.
func title(rec record.Record) string {
	for _, f := range []string{"name", "title", "firstName"} {
		if s, ok := rec.Data[f].(string); ok && s != "" {
			if f == "firstName" {
				if last, ok := rec.Data["lastName"].(string); ok {
					return s + " " + last
				}
			}
			return s
		}
	}
	return "Без названия"
}

func syncState(id string, deleted bool) string {
	switch {
	case deleted:
		return color.RedString("удалена")
	case id == "":
		return color.YellowString("не отправлена")
	default:
		return color.GreenString("на сервере")
	}
}

func init() {
	addCollectionFlag(ListCmd)
}
