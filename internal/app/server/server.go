package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"greenkeep/internal/app/server/api"
	"greenkeep/internal/app/server/config"
	"greenkeep/internal/domain/session"
	"greenkeep/internal/domain/sync"
	"greenkeep/internal/domain/tenant"
	"greenkeep/internal/domain/user"
	"greenkeep/internal/infrastructure/cache"
	"greenkeep/internal/infrastructure/migration"
	"greenkeep/internal/infrastructure/storage/memory"
	"greenkeep/internal/infrastructure/storage/postgres"
)

// Backend - хранилища, на которых работает сервер.
type Backend struct {
	Directory tenant.Directory
	Opener    tenant.Opener
	Users     user.Repository

	closers []func() error
}

// App собирает доменные сервисы и HTTP API поверх выбранного хранилища.
type App struct {
	cfg *config.Config
	log *slog.Logger

	backend  *Backend
	Users    user.Servicer
	Sessions session.Servicer
	Tenants  tenant.Servicer
	Router   *tenant.Router
	Sync     sync.Servicer
}

// New открывает хранилище по cfg.Storage.Driver. Для postgres глобальные
// миграции накатываются при старте; если задан REDIS_URL, реестр тенантов
// кэшируется в redis.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	var (
		b   *Backend
		err error
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		b = NewMemoryBackend()
	case config.DriverPostgres:
		b, err = newPostgresBackend(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Cache.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Directory = cache.NewTenantDirectory(b.Directory, client, cfg.Cache.TenantTTL, log)
		b.closers = append(b.closers, client.Close)
		log.Info("tenant cache enabled", slog.Duration("ttl", cfg.Cache.TenantTTL))
	}

	app, err := NewWithBackend(b, cfg, log)
	if err != nil {
		b.Close()
		return nil, err
	}
	return app, nil
}

func NewMemoryBackend() *Backend {
	return &Backend{
		Directory: memory.NewTenantDirectory(),
		Opener:    memory.NewOpener(),
		Users:     memory.NewUserRepository(),
	}
}

func newPostgresBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Backend, error) {
	mg := migration.NewMigration(nil, log)
	if err := mg.Up(cfg.GlobalMigrations(), cfg.DB.DatabaseURI); err != nil {
		return nil, fmt.Errorf("global migrations: %w", err)
	}

	storage, err := postgres.New(ctx, cfg.DB.DatabaseURI, log)
	if err != nil {
		return nil, err
	}

	pool := storage.Pool()
	return &Backend{
		Directory: postgres.NewTenantRepository(pool, log),
		Opener:    postgres.NewOpener(pool, mg, cfg.DB.DatabaseURI, cfg.TenantMigrations(), log),
		Users:     postgres.NewUserRepository(pool, log),
		closers:   []func() error{storage.Close},
	}, nil
}

func NewWithBackend(b *Backend, cfg *config.Config, log *slog.Logger) (*App, error) {
	sessions, err := session.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL, log)
	if err != nil {
		return nil, fmt.Errorf("session service: %w", err)
	}

	router := tenant.NewRouter(b.Directory, b.Opener, log)

	return &App{
		cfg:      cfg,
		log:      log,
		backend:  b,
		Users:    user.NewService(b.Users, user.NewPasswordValidator(), log),
		Sessions: sessions,
		Tenants:  tenant.NewService(b.Directory, router, log),
		Router:   router,
		Sync:     sync.NewService(log),
	}, nil
}

// Handler возвращает HTTP API приложения.
func (a *App) Handler() http.Handler {
	return api.New(api.Services{
		Users:    a.Users,
		Sessions: a.Sessions,
		Tenants:  a.Tenants,
		Resolver: a.Router,
		Sync:     a.Sync,
	}, a.log)
}

// Run обслуживает HTTP до отмены ctx, затем плавно останавливается.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.RunAddress,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server started", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *App) Close() error {
	return a.backend.Close()
}

func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
