package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"greenkeep/internal/domain/tenant"
)

const tenantColumns = `id::text, slug, name, is_active, created_at, updated_at`

type TenantRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewTenantRepository(pool *pgxpool.Pool, log *slog.Logger) *TenantRepository {
	return &TenantRepository{
		pool: pool,
		log:  log.With("component", "tenant_repository"),
	}
}

func (r *TenantRepository) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, tenant.ErrTenantNotFound
	}
	return r.get(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, uid)
}

func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return r.get(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug)
}

func (r *TenantRepository) get(ctx context.Context, query string, args ...any) (*tenant.Tenant, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, tenant.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	uid, err := uuid.Parse(t.ID)
	if err != nil {
		return fmt.Errorf("tenant id: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO tenants (id, slug, name, is_active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		uid, t.Slug, t.Name, t.IsActive, t.CreatedAt, t.UpdatedAt)
	if isUniqueViolation(err) {
		return tenant.ErrSlugTaken
	}
	return err
}

func (r *TenantRepository) List(ctx context.Context) ([]tenant.Tenant, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var out []tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *TenantRepository) SetActive(ctx context.Context, id string, active bool) (*tenant.Tenant, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, tenant.ErrTenantNotFound
	}
	return r.get(ctx,
		`UPDATE tenants SET is_active = $2, updated_at = NOW() WHERE id = $1 RETURNING `+tenantColumns,
		uid, active)
}

func scanTenant(row pgx.Row) (*tenant.Tenant, error) {
	var t tenant.Tenant
	if err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
