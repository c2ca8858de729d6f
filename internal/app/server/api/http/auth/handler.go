package auth

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"greenkeep/internal/domain/session"
	"greenkeep/internal/domain/user"
)

type Handler struct {
	service    user.Servicer
	session    session.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service user.Servicer, session session.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		session:    session,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.loginOp(), h.login)
}

func (h *Handler) login(ctx context.Context, input *loginInput) (*loginOutput, error) {
	u, err := h.service.Authenticate(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidAuth) {
			return nil, huma.Error401Unauthorized("Invalid credentials")
		}
		h.log.Error("authenticate", slog.String("error", err.Error()))
		return nil, huma.Error500InternalServerError("Login failed")
	}

	token, expiresAt, err := h.session.Create(ctx, session.Claims{
		UserID:   u.ID,
		TenantID: u.TenantID,
		Role:     string(u.Role),
	})
	if err != nil {
		h.log.Error("create session", slog.String("error", err.Error()))
		return nil, huma.Error500InternalServerError("Login failed")
	}

	return &loginOutput{
		Body: LoginResponse{
			Token:     token,
			ExpiresAt: expiresAt,
			Status:    "Ok",
			User: UserInfo{
				ID:        u.ID,
				Email:     u.Email,
				FirstName: u.FirstName,
				LastName:  u.LastName,
				Role:      string(u.Role),
				TenantID:  u.TenantID,
			},
		},
	}, nil
}
