package tenant

import (
	"context"

	"greenkeep/internal/domain/record"
)

// Directory - глобальный реестр тенантов.
type Directory interface {
	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	Create(ctx context.Context, t *Tenant) error
	List(ctx context.Context) ([]Tenant, error)
	SetActive(ctx context.Context, id string, active bool) (*Tenant, error)
}

// Opener открывает (и при необходимости создает) раздел данных тенанта.
// Возвращенный Store работает только с этим разделом.
type Opener interface {
	Open(ctx context.Context, t Tenant) (record.Store, error)
}
