package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// MaxPushBytes - предел тела push. Клиент делит очередь на пакеты меньшего размера.
const MaxPushBytes = 4 << 20

func (h *Handler) pullOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-pull",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/pull",
		Summary:     "Получить изменения",
		Description: "Возвращает записи каждой коллекции с версией больше последней известной клиенту",
		Tags:        []string{"sync"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) pushOp() huma.Operation {
	return huma.Operation{
		OperationID:  "sync-push",
		Method:       http.MethodPost,
		Path:         "/api/v1/sync/push",
		Summary:      "Отправить локальные изменения",
		Description:  "Применяет созданные и измененные на клиенте записи; каждая запись принимается или отклоняется отдельно",
		Tags:         []string{"sync"},
		Security:     []map[string][]string{{"bearer": {}}},
		MaxBodyBytes: MaxPushBytes,
		Middlewares:  h.middleware,
	}
}
