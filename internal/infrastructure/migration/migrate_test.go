package migration

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

// MockMigrator - мок для интерфейса Migrator
type MockMigrator struct {
	mock.Mock
}

func (m *MockMigrator) Up() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockMigrator) Close() (error, error) {
	args := m.Called()
	return args.Error(0), args.Error(1)
}

func TestMigration_Up_Success(t *testing.T) {
	mockM := new(MockMigrator)
	mockM.On("Up").Return(nil)
	mockM.On("Close").Return(nil, nil)

	var gotSource, gotDB string
	engine := func(source, db string) (Migrator, error) {
		gotSource, gotDB = source, db
		return mockM, nil
	}

	mg := NewMigration(engine, slog.Default())
	err := mg.Up("migrations/global", "postgres://localhost/greenkeep")

	assert.NoError(t, err)
	assert.Equal(t, "file://migrations/global", gotSource)
	assert.Equal(t, "postgres://localhost/greenkeep", gotDB)
	mockM.AssertExpectations(t)
}

func TestMigration_Up_NoChange(t *testing.T) {
	mockM := new(MockMigrator)

	// ErrNoChange не должна считаться ошибкой в методе Up()
	mockM.On("Up").Return(migrate.ErrNoChange)
	mockM.On("Close").Return(nil, nil)

	engine := func(source, db string) (Migrator, error) {
		return mockM, nil
	}

	err := NewMigration(engine, slog.Default()).Up("m", "postgres://db")
	assert.NoError(t, err)
}

func TestMigration_Up_Failure(t *testing.T) {
	mockM := new(MockMigrator)
	mockM.On("Up").Return(errors.New("dirty database"))
	mockM.On("Close").Return(nil, errors.New("conn closed"))

	engine := func(source, db string) (Migrator, error) {
		return mockM, nil
	}

	err := NewMigration(engine, slog.Default()).Up("m", "postgres://db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dirty database")
	assert.Contains(t, err.Error(), "conn closed")
}

func TestMigration_Up_EngineError(t *testing.T) {
	// Ошибка на этапе создания мигратора (например, неверный драйвер)
	engine := func(source, db string) (Migrator, error) {
		return nil, errors.New("engine crash")
	}

	err := NewMigration(engine, slog.Default()).Up("m", "postgres://db")
	assert.Error(t, err)
	assert.Equal(t, "engine crash", err.Error())
}

func TestMigration_UpSchema(t *testing.T) {
	mockM := new(MockMigrator)
	mockM.On("Up").Return(nil)
	mockM.On("Close").Return(nil, nil)

	var gotDB string
	engine := func(source, db string) (Migrator, error) {
		gotDB = db
		return mockM, nil
	}

	err := NewMigration(engine, slog.Default()).
		UpSchema("migrations/tenant", "postgres://u:p@localhost:5432/greenkeep?sslmode=disable", "greenkeep_t_acme")

	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost:5432/greenkeep?search_path=greenkeep_t_acme&sslmode=disable", gotDB)
}
