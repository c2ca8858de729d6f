package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/slog"

	"greenkeep/internal/domain/tenant"
)

const (
	tenantByIDPrefix   = "greenkeep:tenant:id:"
	tenantBySlugPrefix = "greenkeep:tenant:slug:"
)

// TenantDirectory кэширует описания тенантов в Redis поверх основного реестра.
// Недоступный Redis не ломает запросы: чтение идет напрямую в реестр.
type TenantDirectory struct {
	next   tenant.Directory
	client redis.Cmdable
	ttl    time.Duration
	log    *slog.Logger
}

func NewTenantDirectory(next tenant.Directory, client redis.Cmdable, ttl time.Duration, log *slog.Logger) *TenantDirectory {
	return &TenantDirectory{
		next:   next,
		client: client,
		ttl:    ttl,
		log:    log.With(slog.String("component", "tenant-cache")),
	}
}

func (d *TenantDirectory) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	return d.cached(ctx, tenantByIDPrefix+id, func() (*tenant.Tenant, error) {
		return d.next.GetByID(ctx, id)
	})
}

func (d *TenantDirectory) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return d.cached(ctx, tenantBySlugPrefix+slug, func() (*tenant.Tenant, error) {
		return d.next.GetBySlug(ctx, slug)
	})
}

func (d *TenantDirectory) Create(ctx context.Context, t *tenant.Tenant) error {
	return d.next.Create(ctx, t)
}

func (d *TenantDirectory) List(ctx context.Context) ([]tenant.Tenant, error) {
	return d.next.List(ctx)
}

// SetActive меняет статус и сбрасывает кэш, чтобы приостановка
// вступила в силу сразу, а не по истечении TTL.
func (d *TenantDirectory) SetActive(ctx context.Context, id string, active bool) (*tenant.Tenant, error) {
	t, err := d.next.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	if err := d.client.Del(ctx, tenantByIDPrefix+t.ID, tenantBySlugPrefix+t.Slug).Err(); err != nil {
		d.log.Warn("failed to invalidate tenant cache", "tenant", t.Slug, "error", err)
	}
	return t, nil
}

func (d *TenantDirectory) cached(ctx context.Context, key string, load func() (*tenant.Tenant, error)) (*tenant.Tenant, error) {
	raw, err := d.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var t tenant.Tenant
		if err := json.Unmarshal(raw, &t); err == nil {
			return &t, nil
		}
		d.log.Warn("corrupted tenant cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		d.log.Warn("tenant cache unavailable", "error", err)
	}

	t, err := load()
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(t); err == nil {
		if err := d.client.Set(ctx, key, data, d.ttl).Err(); err != nil {
			d.log.Debug("failed to cache tenant", "key", key, "error", err)
		}
	}
	return t, nil
}
