package record

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"greenkeep/internal/domain/collection"
)

// RecordCmd - родительская команда для всех операций с записями
var RecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Управление записями",
	Long: `Создание, просмотр, обновление и удаление записей коллекций:
` + strings.Join(collection.Names(), ", ") + `.

Изменения применяются локально сразу и отправляются на сервер при синхронизации.`,
}

var (
	collectionName string
	dataJSON       string
	dataFile       string
)

func addCollectionFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&collectionName, "collection", "c", "", "коллекция ("+strings.Join(collection.Names(), ", ")+")")
	_ = cmd.MarkFlagRequired("collection")
}

func addDataFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&dataJSON, "data", "d", "", `поля записи в JSON, например '{"name":"Green 1","type":"green"}'`)
	cmd.Flags().StringVarP(&dataFile, "file", "f", "", "файл с JSON полями записи (- для stdin)")
}

// readData читает поля записи из --data или --file.
func readData() (map[string]any, error) {
	var raw []byte
	switch {
	case dataJSON != "":
		raw = []byte(dataJSON)
	case dataFile == "-":
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения stdin: %w", err)
		}
		raw = b
	case dataFile != "":
		b, err := os.ReadFile(dataFile)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения файла: %w", err)
		}
		raw = b
	default:
		return nil, fmt.Errorf("укажите поля записи через --data или --file")
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("некорректный JSON: %w", err)
	}
	return data, nil
}
