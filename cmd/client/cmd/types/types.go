package types

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"greenkeep/internal/app/client"
)

type ctxKey string

// ClientAppKey - ключ, под которым root кладет *client.App в контекст команды.
const ClientAppKey ctxKey = "client_app"

// JSONOutput устанавливается глобальным флагом --json.
var JSONOutput bool

var ErrNoApp = errors.New("приложение не инициализировано")

// App достает клиентское приложение из контекста команды.
func App(cmd *cobra.Command) (*client.App, error) {
	app, ok := cmd.Context().Value(ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, ErrNoApp
	}
	return app, nil
}

// PrintJSON выводит v с отступами в stdout.
func PrintJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
