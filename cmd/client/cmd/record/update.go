package record

import (
	"fmt"

	"github.com/spf13/cobra"

	"greenkeep/cmd/client/cmd/types"
)

var UpdateCmd = &cobra.Command{
	Use:     "update <id>",
	Short:   "Изменить поля записи",
	Long:    `Переданные поля заменяют текущие значения, остальные поля не меняются.`,
	Example: `  greenkeep record update -c equipment 3f1c... -d '{"status":"maintenance"}'`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		patch, err := readData()
		if err != nil {
			return err
		}

		rec, err := app.UpdateRecord(cmd.Context(), collectionName, args[0], patch)
		if err != nil {
			return fmt.Errorf("ошибка обновления записи: %w", err)
		}

		if types.JSONOutput {
			return types.PrintJSON(rec)
		}
		fmt.Printf("✓ Запись %s обновлена\n", rec.Key())
		return nil
	},
}

func init() {
	addCollectionFlag(UpdateCmd)
	addDataFlags(UpdateCmd)
}
