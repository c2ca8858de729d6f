package tenant

import (
	"context"

	"github.com/stretchr/testify/mock"

	"greenkeep/internal/domain/record"
)

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) GetByID(ctx context.Context, id string) (*Tenant, error) {
	args := m.Called(ctx, id)
	if t := args.Get(0); t != nil {
		return t.(*Tenant), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDirectory) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	args := m.Called(ctx, slug)
	if t := args.Get(0); t != nil {
		return t.(*Tenant), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDirectory) Create(ctx context.Context, t *Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockDirectory) List(ctx context.Context) ([]Tenant, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Tenant), args.Error(1)
}

func (m *MockDirectory) SetActive(ctx context.Context, id string, active bool) (*Tenant, error) {
	args := m.Called(ctx, id, active)
	if t := args.Get(0); t != nil {
		return t.(*Tenant), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockOpener struct {
	mock.Mock
}

func (m *MockOpener) Open(ctx context.Context, t Tenant) (record.Store, error) {
	args := m.Called(ctx, t)
	if s := args.Get(0); s != nil {
		return s.(record.Store), args.Error(1)
	}
	return nil, args.Error(1)
}

// stubStore - заглушка хранилища, роутеру важна только идентичность.
type stubStore struct {
	record.Store
	name string
}
