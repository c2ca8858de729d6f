package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"greenkeep/internal/domain/user"
)

func NewUserRepository(pool *pgxpool.Pool, log *slog.Logger) *UserRepository {
	return &UserRepository{
		pool: pool,
		log:  log,
	}
}

type UserRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	id, err := uuid.Parse(u.ID)
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}

	var tenantID *uuid.UUID
	if u.TenantID != "" {
		tid, err := uuid.Parse(u.TenantID)
		if err != nil {
			return fmt.Errorf("tenant id: %w", err)
		}
		tenantID = &tid
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, first_name, last_name, role, tenant_id, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, u.Email, u.PasswordHash, u.FirstName, u.LastName, string(u.Role), tenantID, u.IsActive, u.CreatedAt)
	if isUniqueViolation(err) {
		return user.ErrEmailTaken
	}
	return err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var (
		u    user.User
		role string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id::text, email, password_hash, first_name, last_name, role,
		        COALESCE(tenant_id::text, ''), is_active, created_at
		 FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &role,
			&u.TenantID, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	u.Role = user.Role(role)
	return &u, nil
}
