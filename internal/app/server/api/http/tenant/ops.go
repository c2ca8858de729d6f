package tenant

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

var bearer = []map[string][]string{{"bearer": {}}}

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "tenant-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants",
		Summary:     "Список тенантов",
		Tags:        []string{"tenants"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) createOp() huma.Operation {
	return huma.Operation{
		OperationID:   "tenant-create",
		Method:        http.MethodPost,
		Path:          "/api/v1/tenants",
		Summary:       "Создать тенанта",
		Description:   "Регистрирует тенанта и создает его раздел данных",
		Tags:          []string{"tenants"},
		DefaultStatus: http.StatusCreated,
		Security:      bearer,
		Middlewares:   h.middleware,
	}
}

func (h *Handler) suspendOp() huma.Operation {
	return huma.Operation{
		OperationID: "tenant-suspend",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/suspend",
		Summary:     "Приостановить тенанта",
		Tags:        []string{"tenants"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) activateOp() huma.Operation {
	return huma.Operation{
		OperationID: "tenant-activate",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/activate",
		Summary:     "Активировать тенанта",
		Tags:        []string{"tenants"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}
