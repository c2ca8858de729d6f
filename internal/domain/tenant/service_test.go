package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type MockProvisioner struct {
	mock.Mock
}

func (m *MockProvisioner) Provision(ctx context.Context, t Tenant) error {
	return m.Called(ctx, t).Error(0)
}

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		slug  string
		valid bool
	}{
		{"acme", true},
		{"pine-valley-2", true},
		{"a", false},
		{"Acme", false},
		{"pine_valley", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			err := ValidateSlug(tt.slug)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidSlug)
			}
		})
	}
}

func TestService_Create(t *testing.T) {
	dir := new(MockDirectory)
	prov := new(MockProvisioner)
	dir.On("Create", mock.Anything, mock.MatchedBy(func(t *Tenant) bool {
		return t.Slug == "acme" && t.Name == "Acme Golf" && t.IsActive && t.ID != ""
	})).Return(nil)
	prov.On("Provision", mock.Anything, mock.AnythingOfType("tenant.Tenant")).Return(nil)

	svc := NewService(dir, prov, slog.Default())
	created, err := svc.Create(context.Background(), " acme ", "Acme Golf")

	require.NoError(t, err)
	assert.Equal(t, "acme", created.Slug)
	assert.True(t, created.IsActive)
	dir.AssertExpectations(t)
	prov.AssertExpectations(t)
}

func TestService_Create_Invalid(t *testing.T) {
	svc := NewService(new(MockDirectory), new(MockProvisioner), slog.Default())

	_, err := svc.Create(context.Background(), "Bad Slug", "Acme")
	assert.ErrorIs(t, err, ErrInvalidSlug)

	_, err = svc.Create(context.Background(), "acme", "  ")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestService_Create_DuplicateSlug(t *testing.T) {
	dir := new(MockDirectory)
	prov := new(MockProvisioner)
	dir.On("Create", mock.Anything, mock.Anything).Return(ErrSlugTaken)

	svc := NewService(dir, prov, slog.Default())
	_, err := svc.Create(context.Background(), "acme", "Acme")

	assert.ErrorIs(t, err, ErrSlugTaken)
	prov.AssertNotCalled(t, "Provision", mock.Anything, mock.Anything)
}

func TestService_SuspendBySlug(t *testing.T) {
	dir := new(MockDirectory)
	acme := &Tenant{ID: acmeID, Slug: "acme", IsActive: true}
	dir.On("GetBySlug", mock.Anything, "acme").Return(acme, nil)
	dir.On("SetActive", mock.Anything, acmeID, false).Return(&Tenant{ID: acmeID, Slug: "acme"}, nil)

	svc := NewService(dir, new(MockProvisioner), slog.Default())
	got, err := svc.Suspend(context.Background(), "acme")

	require.NoError(t, err)
	assert.False(t, got.IsActive)
	dir.AssertExpectations(t)
}

func TestService_ActivateUnknown(t *testing.T) {
	dir := new(MockDirectory)
	dir.On("SetActive", mock.Anything, otherID, true).Return(nil, ErrTenantNotFound)

	svc := NewService(dir, new(MockProvisioner), slog.Default())
	_, err := svc.Activate(context.Background(), otherID)

	assert.True(t, errors.Is(err, ErrTenantNotFound))
}
