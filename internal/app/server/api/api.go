// GET  /api/v1/health                   # Проверка доступности (публичный)
// POST /api/v1/auth/login               # Логин, выдает JWT (публичный)
// POST /api/v1/sync/pull                # Изменения с сервера (auth + tenant)
// POST /api/v1/sync/push                # Локальные изменения на сервер (auth + tenant)
// GET  /api/v1/tenants                  # Список тенантов (superadmin)
// POST /api/v1/tenants                  # Создать тенанта (superadmin)
// POST /api/v1/tenants/{id}/suspend     # Приостановить (superadmin)
// POST /api/v1/tenants/{id}/activate    # Активировать (superadmin)

package api

import (
	authAPI "greenkeep/internal/app/server/api/http/auth"
	healthAPI "greenkeep/internal/app/server/api/http/health"
	"greenkeep/internal/app/server/api/http/middleware"
	"greenkeep/internal/app/server/api/http/middleware/auth"
	"greenkeep/internal/app/server/api/http/middleware/logger"
	tenantMW "greenkeep/internal/app/server/api/http/middleware/tenant"
	syncAPI "greenkeep/internal/app/server/api/http/sync"
	tenantAPI "greenkeep/internal/app/server/api/http/tenant"
	"greenkeep/internal/domain/session"
	"greenkeep/internal/domain/sync"
	"greenkeep/internal/domain/tenant"
	"greenkeep/internal/domain/user"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/exp/slog"
)

// Services - доменные сервисы, которые обслуживает API.
type Services struct {
	Users    user.Servicer
	Sessions session.Servicer
	Tenants  tenant.Servicer
	Resolver tenant.Resolver
	Sync     sync.Servicer
}

type Handlers struct {
	Health *healthAPI.Handler
	Auth   *authAPI.Handler
	Sync   *syncAPI.Handler
	Tenant *tenantAPI.Handler
}

// New создает *chi.Mux с ВСЕМИ операциями через huma.Register
func New(services Services, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)

	config := huma.DefaultConfig("GreenKeep Sync API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
	}

	API := humachi.New(mux, config)

	h := handlers(services, log)
	h.Health.SetupRoutes(API)
	h.Auth.SetupRoutes(API)
	h.Sync.SetupRoutes(API)
	h.Tenant.SetupRoutes(API)

	return mux
}

func handlers(s Services, log *slog.Logger) *Handlers {
	authMW := auth.New(s.Sessions, log)
	tenantResolver := tenantMW.New(s.Resolver, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	authHandler := authAPI.NewHandler(s.Users, s.Sessions, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	middlewares.Add(authMW.Middleware())
	middlewares.Add(tenantResolver.Middleware())
	syncHandler := syncAPI.NewHandler(s.Sync, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	middlewares.Add(authMW.Middleware())
	middlewares.Add(authMW.RequireRole(user.RoleSuperadmin))
	tenantHandler := tenantAPI.NewHandler(s.Tenants, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		Auth:   authHandler,
		Sync:   syncHandler,
		Tenant: tenantHandler,
	}
}
