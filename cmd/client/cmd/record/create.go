package record

import (
	"fmt"

	"github.com/spf13/cobra"

	"greenkeep/cmd/client/cmd/types"
)

var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Создать запись",
	Example: `  greenkeep record create -c zones -d '{"name":"Green 7","type":"green","holeNumber":7}'
  greenkeep record create -c tasks -f task.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		data, err := readData()
		if err != nil {
			return err
		}

		rec, err := app.CreateRecord(cmd.Context(), collectionName, data)
		if err != nil {
			return fmt.Errorf("ошибка создания записи: %w", err)
		}

		if types.JSONOutput {
			return types.PrintJSON(rec)
		}
		fmt.Printf("✓ Запись создана локально: %s\n", rec.Key())
		fmt.Println("Она будет отправлена на сервер при следующей синхронизации.")
		return nil
	},
}

func init() {
	addCollectionFlag(CreateCmd)
	addDataFlags(CreateCmd)
}
