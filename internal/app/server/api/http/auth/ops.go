package auth

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) loginOp() huma.Operation {
	return huma.Operation{
		OperationID: "auth-login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Авторизация пользователя",
		Description: "Проверяет email и пароль, возвращает JWT с тенантом и ролью",
		Tags:        []string{"auth"},
		Middlewares: h.middleware,
	}
}
