package tenant

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/singleflight"

	"greenkeep/internal/domain/record"
)

// Partition - тенант вместе с хранилищем его данных.
type Partition struct {
	Tenant Tenant
	Store  record.Store
}

type Resolver interface {
	Resolve(ctx context.Context, tenantID string) (*Partition, error)
}

// Router сопоставляет тенанта с его разделом данных.
// Открытые хранилища кэшируются на все время жизни процесса.
type Router struct {
	dir    Directory
	opener Opener
	log    *slog.Logger

	mu    sync.RWMutex
	parts map[string]record.Store
	group singleflight.Group
}

func NewRouter(dir Directory, opener Opener, log *slog.Logger) *Router {
	return &Router{
		dir:    dir,
		opener: opener,
		log:    log.With(slog.String("component", "tenant-router")),
		parts:  make(map[string]record.Store),
	}
}

// Resolve находит тенанта по id (или slug) и возвращает его раздел.
// Приостановленный тенант не получает доступа к данным.
func (r *Router) Resolve(ctx context.Context, tenantID string) (*Partition, error) {
	if tenantID == "" {
		return nil, ErrTenantRequired
	}

	t, err := r.lookup(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, ErrTenantSuspended
	}

	store, err := r.store(ctx, *t)
	if err != nil {
		return nil, err
	}
	return &Partition{Tenant: *t, Store: store}, nil
}

// Provision открывает раздел нового тенанта (создает схему и таблицы).
func (r *Router) Provision(ctx context.Context, t Tenant) error {
	_, err := r.store(ctx, t)
	return err
}

func (r *Router) lookup(ctx context.Context, tenantID string) (*Tenant, error) {
	var (
		t   *Tenant
		err error
	)
	if _, perr := uuid.Parse(tenantID); perr == nil {
		t, err = r.dir.GetByID(ctx, tenantID)
	} else {
		t, err = r.dir.GetBySlug(ctx, tenantID)
	}
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("lookup tenant %s: %w", tenantID, err)
	}
	return t, nil
}

func (r *Router) store(ctx context.Context, t Tenant) (record.Store, error) {
	r.mu.RLock()
	s, ok := r.parts[t.ID]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	v, err, _ := r.group.Do(t.ID, func() (any, error) {
		r.mu.RLock()
		s, ok := r.parts[t.ID]
		r.mu.RUnlock()
		if ok {
			return s, nil
		}

		s, err := r.opener.Open(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("open partition %s: %w", t.PartitionName(), err)
		}

		r.mu.Lock()
		r.parts[t.ID] = s
		r.mu.Unlock()

		r.log.Info("partition opened",
			slog.String("tenant", t.Slug),
			slog.String("partition", t.PartitionName()))
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(record.Store), nil
}
