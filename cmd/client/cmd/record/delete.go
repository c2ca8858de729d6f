package record

import (
	"fmt"

	"github.com/spf13/cobra"

	"greenkeep/cmd/client/cmd/types"
)

var DeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Удалить запись",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		if err := app.DeleteRecord(cmd.Context(), collectionName, args[0]); err != nil {
			return fmt.Errorf("ошибка удаления записи: %w", err)
		}
		fmt.Printf("✓ Запись %s удалена\n", args[0])
		return nil
	},
}

func init() {
	addCollectionFlag(DeleteCmd)
}
