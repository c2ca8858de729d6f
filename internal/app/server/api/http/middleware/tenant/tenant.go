package tenant

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"greenkeep/internal/app/server/api/http/middleware"
	"greenkeep/internal/app/server/api/http/middleware/auth"
	"greenkeep/internal/domain/tenant"
	"greenkeep/internal/domain/user"
)

const (
	HeaderTenantID = "X-Tenant-Id"
	QueryTenantID  = "tenantId"
)

type contextKey string

const partitionKey contextKey = "partition"

// Tenant определяет тенанта вызывающего и кладет его раздел в контекст.
type Tenant struct {
	router tenant.Resolver
	log    *slog.Logger
}

func New(router tenant.Resolver, log *slog.Logger) *Tenant {
	return &Tenant{
		router: router,
		log:    log.With(slog.String("component", "tenant_middleware")),
	}
}

func (t *Tenant) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		claims, ok := auth.GetClaims(ctx.Context())
		if !ok {
			t.fail(ctx, http.StatusUnauthorized, "Unauthorized")
			return
		}

		tenantID := claims.TenantID
		// superadmin может работать от имени любого тенанта
		if user.Role(claims.Role) == user.RoleSuperadmin {
			if override := ctx.Header(HeaderTenantID); override != "" {
				tenantID = override
			} else if override := ctx.Query(QueryTenantID); override != "" {
				tenantID = override
			}
		}

		p, err := t.router.Resolve(ctx.Context(), tenantID)
		switch {
		case err == nil:
		case errors.Is(err, tenant.ErrTenantRequired):
			t.fail(ctx, http.StatusBadRequest, "Tenant context required")
			return
		case errors.Is(err, tenant.ErrTenantNotFound):
			t.fail(ctx, http.StatusNotFound, "Tenant not found")
			return
		case errors.Is(err, tenant.ErrTenantSuspended):
			t.fail(ctx, http.StatusForbidden, "Tenant is suspended")
			return
		default:
			t.log.Error("resolve tenant", slog.String("tenant", tenantID), slog.String("error", err.Error()))
			t.fail(ctx, http.StatusInternalServerError, "Tenant unavailable")
			return
		}

		next(huma.WithContext(ctx, WithPartition(ctx.Context(), p)))
	}
}

func (t *Tenant) fail(ctx huma.Context, status int, msg string) {
	if err := middleware.WriteError(ctx, status, msg); err != nil {
		t.log.Error("write response", slog.String("error", err.Error()))
	}
}

func WithPartition(ctx context.Context, p *tenant.Partition) context.Context {
	return context.WithValue(ctx, partitionKey, p)
}

func GetPartition(ctx context.Context) (*tenant.Partition, bool) {
	p, ok := ctx.Value(partitionKey).(*tenant.Partition)
	return p, ok && p != nil
}
