package record

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"greenkeep/cmd/client/cmd/types"
)

var GetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Показать запись",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		rec, err := app.GetRecord(cmd.Context(), collectionName, args[0])
		if err != nil {
			return fmt.Errorf("ошибка получения записи: %w", err)
		}
		if types.JSONOutput {
			return types.PrintJSON(rec)
		}

		fmt.Printf("ID:        %s\n", rec.Key())
		fmt.Printf("Версия:    %d\n", rec.Version)
		fmt.Printf("Статус:    %s\n", syncState(rec.ID, rec.Deleted))
		fmt.Printf("Создано:   %s\n", rec.CreatedAt.Local().Format(time.DateTime))
		fmt.Printf("Обновлено: %s\n", rec.UpdatedAt.Local().Format(time.DateTime))

		data, err := json.MarshalIndent(rec.Data, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("\n%s\n", data)
		return nil
	},
}

func init() {
	addCollectionFlag(GetCmd)
}
