package tenant

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

const (
	acmeID  = "0b6f2c1e-4f0e-4d55-9a63-1f3f0f2b7a01"
	otherID = "7d2b9a44-1c3e-4e8b-8f0d-5a6b7c8d9e02"
)

func TestPartitionName(t *testing.T) {
	assert.Equal(t, "greenkeep_t_pine_valley", PartitionName("pine-valley"))
	assert.Equal(t, "greenkeep_t_acme", Tenant{Slug: "acme"}.PartitionName())
}

func TestRouter_Resolve(t *testing.T) {
	acme := &Tenant{ID: acmeID, Slug: "acme", IsActive: true}
	frozen := &Tenant{ID: otherID, Slug: "frozen", IsActive: false}

	tests := []struct {
		name     string
		tenantID string
		setup    func(d *MockDirectory, o *MockOpener)
		wantErr  error
	}{
		{
			name:     "active tenant by id",
			tenantID: acmeID,
			setup: func(d *MockDirectory, o *MockOpener) {
				d.On("GetByID", mock.Anything, acmeID).Return(acme, nil)
				o.On("Open", mock.Anything, *acme).Return(&stubStore{name: "acme"}, nil)
			},
		},
		{
			name:     "active tenant by slug",
			tenantID: "acme",
			setup: func(d *MockDirectory, o *MockOpener) {
				d.On("GetBySlug", mock.Anything, "acme").Return(acme, nil)
				o.On("Open", mock.Anything, *acme).Return(&stubStore{name: "acme"}, nil)
			},
		},
		{
			name:     "unknown tenant",
			tenantID: "nobody",
			setup: func(d *MockDirectory, o *MockOpener) {
				d.On("GetBySlug", mock.Anything, "nobody").Return(nil, ErrTenantNotFound)
			},
			wantErr: ErrTenantNotFound,
		},
		{
			name:     "suspended tenant",
			tenantID: otherID,
			setup: func(d *MockDirectory, o *MockOpener) {
				d.On("GetByID", mock.Anything, otherID).Return(frozen, nil)
			},
			wantErr: ErrTenantSuspended,
		},
		{
			name:     "missing tenant context",
			tenantID: "",
			setup:    func(d *MockDirectory, o *MockOpener) {},
			wantErr:  ErrTenantRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := new(MockDirectory)
			opener := new(MockOpener)
			tt.setup(dir, opener)

			router := NewRouter(dir, opener, slog.Default())
			p, err := router.Resolve(context.Background(), tt.tenantID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)
			} else {
				require.NoError(t, err)
				assert.Equal(t, acmeID, p.Tenant.ID)
				assert.NotNil(t, p.Store)
			}
			dir.AssertExpectations(t)
			opener.AssertExpectations(t)
		})
	}
}

func TestRouter_OpensPartitionOnce(t *testing.T) {
	acme := &Tenant{ID: acmeID, Slug: "acme", IsActive: true}
	dir := new(MockDirectory)
	opener := new(MockOpener)
	dir.On("GetByID", mock.Anything, acmeID).Return(acme, nil)
	opener.On("Open", mock.Anything, *acme).Return(&stubStore{name: "acme"}, nil).Once()

	router := NewRouter(dir, opener, slog.Default())

	var wg sync.WaitGroup
	stores := make([]any, 20)
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := router.Resolve(context.Background(), acmeID)
			if err == nil {
				stores[i] = p.Store
			}
		}(i)
	}
	wg.Wait()

	for _, s := range stores {
		assert.Same(t, stores[0], s)
	}
	opener.AssertNumberOfCalls(t, "Open", 1)
}

func TestRouter_PartitionsAreSeparate(t *testing.T) {
	a := &Tenant{ID: acmeID, Slug: "acme", IsActive: true}
	b := &Tenant{ID: otherID, Slug: "birdie", IsActive: true}
	dir := new(MockDirectory)
	opener := new(MockOpener)
	dir.On("GetByID", mock.Anything, acmeID).Return(a, nil)
	dir.On("GetByID", mock.Anything, otherID).Return(b, nil)
	opener.On("Open", mock.Anything, *a).Return(&stubStore{name: "acme"}, nil)
	opener.On("Open", mock.Anything, *b).Return(&stubStore{name: "birdie"}, nil)

	router := NewRouter(dir, opener, slog.Default())
	pa, err := router.Resolve(context.Background(), acmeID)
	require.NoError(t, err)
	pb, err := router.Resolve(context.Background(), otherID)
	require.NoError(t, err)

	assert.NotSame(t, pa.Store, pb.Store)
}

func TestRouter_OpenError(t *testing.T) {
	acme := &Tenant{ID: acmeID, Slug: "acme", IsActive: true}
	dir := new(MockDirectory)
	opener := new(MockOpener)
	dir.On("GetByID", mock.Anything, acmeID).Return(acme, nil)
	opener.On("Open", mock.Anything, *acme).Return(nil, errors.New("connection refused")).Once()
	opener.On("Open", mock.Anything, *acme).Return(&stubStore{name: "acme"}, nil).Once()

	router := NewRouter(dir, opener, slog.Default())
	_, err := router.Resolve(context.Background(), acmeID)
	assert.ErrorContains(t, err, "connection refused")

	// неудачное открытие не кэшируется
	p, err := router.Resolve(context.Background(), acmeID)
	require.NoError(t, err)
	assert.NotNil(t, p.Store)
}
