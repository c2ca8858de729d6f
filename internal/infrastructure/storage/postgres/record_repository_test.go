package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"greenkeep/internal/domain/record"
	"greenkeep/internal/domain/tenant"
	"greenkeep/internal/infrastructure/migration"
)

const tenantMigrations = "../../../../migrations/tenant"

// getTestStorage подключается к TEST_DATABASE_URI; без нее тест пропускается.
func getTestStorage(t *testing.T) (*Storage, string) {
	t.Helper()
	uri := os.Getenv("TEST_DATABASE_URI")
	if uri == "" {
		t.Skip("TEST_DATABASE_URI is not set")
	}
	s, err := New(context.Background(), uri, slog.Default())
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() { _ = s.Close() })
	return s, uri
}

func openTestPartition(t *testing.T) record.Store {
	t.Helper()
	s, uri := getTestStorage(t)
	ctx := context.Background()

	tn := tenant.Tenant{ID: uuid.NewString(), Slug: "test-" + uuid.NewString()[:8]}
	opener := NewOpener(s.Pool(), migration.NewMigration(nil, slog.Default()), uri, tenantMigrations, slog.Default())
	store, err := opener.Open(ctx, tn)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = s.Pool().Exec(ctx, `DROP SCHEMA IF EXISTS `+pgx.Identifier{tn.PartitionName()}.Sanitize()+` CASCADE`)
	})
	return store
}

func TestRecordRepository_Lifecycle(t *testing.T) {
	store := openTestPartition(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "tasks", &record.Record{TempID: "tmp-1", Data: map[string]any{"title": "Mow", "type": "mowing"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Version)
	assert.Equal(t, "tmp-1", created.TempID)

	replay, err := store.Create(ctx, "tasks", &record.Record{TempID: "tmp-1", Data: map[string]any{"title": "Mow"}})
	require.NoError(t, err)
	assert.Equal(t, created.ID, replay.ID)
	assert.Equal(t, int64(1), replay.Version)

	updated, err := store.Update(ctx, "tasks", created.ID, 1, map[string]any{"status": "completed"}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, "Mow", updated.Data["title"])
	assert.Equal(t, "completed", updated.Data["status"])

	_, err = store.Update(ctx, "tasks", created.ID, 1, map[string]any{"status": "pending"}, false)
	assert.ErrorIs(t, err, record.ErrVersionConflict)

	_, err = store.Update(ctx, "tasks", uuid.NewString(), 1, nil, false)
	assert.ErrorIs(t, err, record.ErrNotFound)

	_, err = store.Get(ctx, "tasks", "not-a-uuid")
	assert.ErrorIs(t, err, record.ErrNotFound)

	changed, err := store.Changed(ctx, "tasks", 1)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, int64(2), changed[0].Version)

	none, err := store.Changed(ctx, "zones", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
