package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"greenkeep/internal/domain/record"
	"greenkeep/internal/domain/tenant"
)

// TenantDirectory - реестр тенантов в памяти.
type TenantDirectory struct {
	mu      sync.RWMutex
	tenants map[string]tenant.Tenant
}

func NewTenantDirectory() *TenantDirectory {
	return &TenantDirectory{tenants: make(map[string]tenant.Tenant)}
}

func (d *TenantDirectory) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.tenants[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return &t, nil
}

func (d *TenantDirectory) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, t := range d.tenants {
		if t.Slug == slug {
			return &t, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func (d *TenantDirectory) Create(ctx context.Context, t *tenant.Tenant) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.tenants {
		if existing.Slug == t.Slug {
			return tenant.ErrSlugTaken
		}
	}
	d.tenants[t.ID] = *t
	return nil
}

func (d *TenantDirectory) List(ctx context.Context) ([]tenant.Tenant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]tenant.Tenant, 0, len(d.tenants))
	for _, t := range d.tenants {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (d *TenantDirectory) SetActive(ctx context.Context, id string, active bool) (*tenant.Tenant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.tenants[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	t.IsActive = active
	t.UpdatedAt = time.Now().UTC()
	d.tenants[id] = t
	return &t, nil
}

// Opener выдает каждому тенанту собственный RecordStore.
type Opener struct {
	mu     sync.Mutex
	stores map[string]*RecordStore
}

func NewOpener() *Opener {
	return &Opener{stores: make(map[string]*RecordStore)}
}

func (o *Opener) Open(ctx context.Context, t tenant.Tenant) (record.Store, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	name := t.PartitionName()
	s, ok := o.stores[name]
	if !ok {
		s = NewRecordStore()
		o.stores[name] = s
	}
	return s, nil
}
