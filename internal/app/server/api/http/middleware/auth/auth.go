package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"greenkeep/internal/app/server/api/http/middleware"
	"greenkeep/internal/domain/session"
	"greenkeep/internal/domain/user"
)

type Auth struct {
	session session.Servicer
	log     *slog.Logger
}

func New(session session.Servicer, log *slog.Logger) *Auth {
	return &Auth{
		session: session,
		log:     log.With(slog.String("component", "auth_middleware")),
	}
}

type contextKey string

const claimsKey contextKey = "claims"

// Middleware возвращает middleware для Huma с сигнатурой func(ctx Context, next func(Context))
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		header := ctx.Header("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			a.log.Debug("missing bearer token", slog.String("path", ctx.URL().Path))
			a.unauthorized(ctx)
			return
		}

		claims, err := a.session.Validate(ctx.Context(), token)
		if err != nil {
			a.log.Debug("token validation failed", slog.String("error", err.Error()))
			a.unauthorized(ctx)
			return
		}

		next(huma.WithContext(ctx, WithClaims(ctx.Context(), claims)))
	}
}

// RequireRole пропускает только вызывающих с ролью не ниже min.
// Ставится после Middleware.
func (a *Auth) RequireRole(min user.Role) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		claims, ok := GetClaims(ctx.Context())
		if !ok || !user.Role(claims.Role).AtLeast(min) {
			if err := middleware.WriteError(ctx, http.StatusForbidden, "Insufficient permissions"); err != nil {
				a.log.Error("write response", slog.String("error", err.Error()))
			}
			return
		}
		next(ctx)
	}
}

func (a *Auth) unauthorized(ctx huma.Context) {
	if err := middleware.WriteError(ctx, http.StatusUnauthorized, "Unauthorized"); err != nil {
		a.log.Error("write response", slog.String("error", err.Error()))
	}
}

func WithClaims(ctx context.Context, claims *session.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func GetClaims(ctx context.Context) (*session.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*session.Claims)
	return claims, ok && claims != nil
}
