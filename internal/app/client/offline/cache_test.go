package offline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenkeep/internal/domain/collection"
	"greenkeep/internal/domain/record"
	"greenkeep/internal/domain/sync"
	"greenkeep/internal/utils/logger"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()

	c, err := Open(filepath.Join(t.TempDir(), "cache.db"), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func serverZone(id string, version int64, name string) record.Record {
	return record.Record{
		ID:        id,
		Version:   version,
		Data:      map[string]any{"name": name, "type": "green"},
		CreatedAt: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestCache_SaveAndRead(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	require.NoError(t, c.SaveRecords(ctx, collection.Zones, []record.Record{
		serverZone("z1", 1, "Hole 1"),
		serverZone("z2", 3, "Hole 2"),
	}))

	all, err := c.ReadAll(ctx, collection.Zones)
	require.NoError(t, err)
	require.Len(t, all, 2)

	got, err := c.Get(ctx, collection.Zones, "z2")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Version)
	assert.Equal(t, "Hole 2", got.Data["name"])

	// старая версия не перезаписывает новую
	require.NoError(t, c.SaveRecords(ctx, collection.Zones, []record.Record{serverZone("z2", 2, "stale")}))
	got, err = c.Get(ctx, collection.Zones, "z2")
	require.NoError(t, err)
	assert.Equal(t, "Hole 2", got.Data["name"])

	// удаленные на сервере записи скрыты
	deleted := serverZone("z1", 2, "Hole 1")
	deleted.Deleted = true
	require.NoError(t, c.SaveRecords(ctx, collection.Zones, []record.Record{deleted}))
	all, err = c.ReadAll(ctx, collection.Zones)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = c.Get(ctx, collection.Zones, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCache_QueueOrderAndCoalescing(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	require.NoError(t, c.SaveRecords(ctx, collection.Zones, []record.Record{serverZone("z1", 4, "Hole 1")}))

	created, err := c.EnqueueMutation(ctx, collection.Tasks, OpCreate, record.Record{
		TempID: "tmp-1",
		Data:   map[string]any{"title": "Mow fairway 3"},
	})
	require.NoError(t, err)
	assert.Equal(t, OpCreate, created.Operation)

	updated, err := c.EnqueueMutation(ctx, collection.Zones, OpUpdate, record.Record{
		ID:   "z1",
		Data: map[string]any{"health": "poor"},
	})
	require.NoError(t, err)
	assert.Greater(t, updated.Seq, created.Seq)
	assert.Equal(t, int64(4), updated.Payload.Version)
	assert.Equal(t, "Hole 1", updated.Payload.Data["name"])

	pending, err := c.PendingMutations(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "tmp-1", pending[0].RecordKey)
	assert.Equal(t, "z1", pending[1].RecordKey)

	// второе изменение той же записи сливается с первым
	again, err := c.EnqueueMutation(ctx, collection.Tasks, OpUpdate, record.Record{
		TempID: "tmp-1",
		Data:   map[string]any{"priority": "high"},
	})
	require.NoError(t, err)
	assert.Equal(t, OpCreate, again.Operation)
	assert.Equal(t, "Mow fairway 3", again.Payload.Data["title"])
	assert.Equal(t, "high", again.Payload.Data["priority"])

	n, err := c.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	local, err := c.Get(ctx, collection.Zones, "z1")
	require.NoError(t, err)
	assert.Equal(t, "poor", local.Data["health"])
}

func TestCache_DeleteUnpushedCreate(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	m, err := c.EnqueueMutation(ctx, collection.Equipment, OpCreate, record.Record{
		Data: map[string]any{"name": "Mower #2"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, m.RecordKey)

	m2, err := c.EnqueueMutation(ctx, collection.Equipment, OpDelete, record.Record{TempID: m.RecordKey})
	require.NoError(t, err)
	assert.Nil(t, m2)

	n, err := c.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = c.Get(ctx, collection.Equipment, m.RecordKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCache_DeleteSyncedRecord(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)
	require.NoError(t, c.SaveRecords(ctx, collection.Zones, []record.Record{serverZone("z1", 2, "Hole 1")}))

	m, err := c.EnqueueMutation(ctx, collection.Zones, OpDelete, record.Record{ID: "z1"})
	require.NoError(t, err)
	assert.Equal(t, OpDelete, m.Operation)
	assert.True(t, m.Payload.Deleted)
	assert.Equal(t, int64(2), m.Payload.Version)

	_, err = c.Get(ctx, collection.Zones, "z1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.EnqueueMutation(ctx, collection.Zones, OpUpdate, record.Record{ID: "z1", Data: map[string]any{"name": "x"}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCache_PullDoesNotOverwritePendingEdits(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)
	require.NoError(t, c.SaveRecords(ctx, collection.Zones, []record.Record{serverZone("z1", 1, "Hole 1")}))

	_, err := c.EnqueueMutation(ctx, collection.Zones, OpUpdate, record.Record{ID: "z1", Data: map[string]any{"name": "Local"}})
	require.NoError(t, err)

	require.NoError(t, c.SaveRecords(ctx, collection.Zones, []record.Record{serverZone("z1", 2, "Remote")}))

	local, err := c.Get(ctx, collection.Zones, "z1")
	require.NoError(t, err)
	assert.Equal(t, "Local", local.Data["name"])
	assert.Equal(t, int64(1), local.Version)
}

func TestCache_ApplyAcceptedRemapsTempID(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	m, err := c.EnqueueMutation(ctx, collection.Zones, OpCreate, record.Record{
		TempID: "tmp-9",
		Data:   map[string]any{"name": "Hole 9", "type": "green"},
	})
	require.NoError(t, err)

	// правка, сделанная пока create был в полете
	later, err := c.EnqueueMutation(ctx, collection.Zones, OpUpdate, record.Record{
		TempID: "tmp-9",
		Data:   map[string]any{"notes": "edited offline"},
	})
	require.NoError(t, err)

	require.NoError(t, c.ApplyAccepted(ctx, collection.Zones, sync.Accepted{TempID: "tmp-9", ID: "srv-9", Version: 1}))
	require.NoError(t, c.DequeueMutations(ctx, []int64{m.Seq}))

	_, err = c.Get(ctx, collection.Zones, "tmp-9")
	assert.ErrorIs(t, err, ErrNotFound)

	local, err := c.Get(ctx, collection.Zones, "srv-9")
	require.NoError(t, err)
	assert.Equal(t, "srv-9", local.ID)
	assert.Equal(t, int64(1), local.Version)
	assert.Equal(t, "edited offline", local.Data["notes"])

	pending, err := c.PendingMutations(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, later.Seq, pending[0].Seq)
	assert.Equal(t, OpUpdate, pending[0].Operation)
	assert.Equal(t, "srv-9", pending[0].RecordKey)
	assert.Equal(t, "srv-9", pending[0].Payload.ID)
	assert.Equal(t, int64(1), pending[0].Payload.Version)
}

func TestCache_Checkpoints(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	v, err := c.GetCheckpoint(ctx, collection.Tasks)
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, c.SetCheckpoint(ctx, collection.Tasks, 7))
	require.NoError(t, c.SetCheckpoint(ctx, collection.Tasks, 3))
	require.NoError(t, c.SetCheckpoint(ctx, collection.Zones, 2))

	v, err = c.GetCheckpoint(ctx, collection.Tasks)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	all, err := c.Checkpoints(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{collection.Tasks: 7, collection.Zones: 2}, all)
}

func setupConflict(t *testing.T, c *Cache) (*Mutation, Conflict) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, c.SaveRecords(ctx, collection.Tasks, []record.Record{{
		ID: "t1", Version: 1, Data: map[string]any{"title": "Aerate green 4", "status": "pending"},
	}}))
	m, err := c.EnqueueMutation(ctx, collection.Tasks, OpUpdate, record.Record{
		ID: "t1", Data: map[string]any{"status": "in_progress"},
	})
	require.NoError(t, err)

	server := &record.Record{ID: "t1", Version: 2, Data: map[string]any{"title": "Aerate green 4", "status": "cancelled"}}
	require.NoError(t, c.MarkRejected(ctx, collection.Tasks, m.Seq, sync.Rejected{
		ID: "t1", Reason: sync.ReasonConflict, Message: "server has a newer version", ServerVersion: 2, ServerRecord: server,
	}))

	conflicts, err := c.Conflicts(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	return m, conflicts[0]
}

func TestCache_MarkRejected(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)
	_, cf := setupConflict(t, c)

	assert.Equal(t, "t1", cf.RecordKey)
	assert.Equal(t, sync.ReasonConflict, cf.Reason)
	require.NotNil(t, cf.ServerRecord)
	assert.Equal(t, int64(2), cf.ServerRecord.Version)

	pending, err := c.PendingMutations(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, sync.ReasonConflict, pending[0].LastReason)

	// ошибка валидации только помечает изменение
	m2, err := c.EnqueueMutation(ctx, collection.Zones, OpCreate, record.Record{Data: map[string]any{"name": "x"}})
	require.NoError(t, err)
	require.NoError(t, c.MarkRejected(ctx, collection.Zones, m2.Seq, sync.Rejected{
		TempID: m2.RecordKey, Reason: sync.ReasonError, Message: "type: required",
	}))
	conflicts, err := c.Conflicts(ctx)
	require.NoError(t, err)
	assert.Len(t, conflicts, 1)
}

func TestCache_ResolveConflictServer(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)
	_, cf := setupConflict(t, c)

	require.NoError(t, c.ResolveConflict(ctx, cf.Seq, ResolveServer))

	n, err := c.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	local, err := c.Get(ctx, collection.Tasks, "t1")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", local.Data["status"])
	assert.Equal(t, int64(2), local.Version)

	conflicts, err := c.Conflicts(ctx)
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	assert.ErrorIs(t, c.ResolveConflict(ctx, cf.Seq, ResolveServer), ErrConflictNotFound)
}

func TestCache_ResolveConflictClient(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)
	m, cf := setupConflict(t, c)

	require.NoError(t, c.ResolveConflict(ctx, cf.Seq, ResolveClient))

	pending, err := c.PendingMutations(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, m.Seq, pending[0].Seq)
	assert.Equal(t, int64(2), pending[0].Payload.Version)
	assert.Equal(t, "in_progress", pending[0].Payload.Data["status"])
	assert.Empty(t, pending[0].LastReason)

	assert.ErrorIs(t, c.ResolveConflict(ctx, cf.Seq, "merge"), ErrUnknownResolution)
}

func TestCache_ResolveNotFoundAsClientRecreates(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	require.NoError(t, c.SaveRecords(ctx, collection.Zones, []record.Record{serverZone("gone", 1, "Old")}))
	m, err := c.EnqueueMutation(ctx, collection.Zones, OpUpdate, record.Record{ID: "gone", Data: map[string]any{"name": "New"}})
	require.NoError(t, err)
	require.NoError(t, c.MarkRejected(ctx, collection.Zones, m.Seq, sync.Rejected{ID: "gone", Reason: sync.ReasonNotFound}))

	conflicts, err := c.Conflicts(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Nil(t, conflicts[0].ServerRecord)

	require.NoError(t, c.ResolveConflict(ctx, conflicts[0].Seq, ResolveClient))

	pending, err := c.PendingMutations(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, OpCreate, pending[0].Operation)
	assert.Equal(t, "gone", pending[0].Payload.TempID)
	assert.Empty(t, pending[0].Payload.ID)
}

func TestCache_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := Open(path, logger.Discard())
	require.NoError(t, err)
	_, err = c.EnqueueMutation(ctx, collection.Zones, OpCreate, record.Record{TempID: "tmp", Data: map[string]any{"name": "A", "type": "rough"}})
	require.NoError(t, err)
	require.NoError(t, c.SetCheckpoint(ctx, collection.Zones, 5))
	require.NoError(t, c.Close())

	c, err = Open(path, logger.Discard())
	require.NoError(t, err)
	defer c.Close()

	n, err := c.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	v, err := c.GetCheckpoint(ctx, collection.Zones)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)
}

func TestCache_DiscardMutation(t *testing.T) {
	ctx := context.Background()

	t.Run("errored update restores server copy on next pull", func(t *testing.T) {
		c := openTestCache(t)
		require.NoError(t, c.SaveRecords(ctx, collection.Zones, []record.Record{serverZone("z1", 3, "Hole 1")}))
		require.NoError(t, c.SetCheckpoint(ctx, collection.Zones, 3))

		m, err := c.EnqueueMutation(ctx, collection.Zones, OpUpdate, record.Record{
			ID: "z1", Data: map[string]any{"name": "Hole 1 (local)"},
		})
		require.NoError(t, err)
		require.NoError(t, c.MarkRejected(ctx, collection.Zones, m.Seq, sync.Rejected{
			ID: "z1", Reason: sync.ReasonError, Message: "storage unavailable",
		}))

		// сервер ушел вперед, пока изменение висело в очереди: pull его пропустил
		require.NoError(t, c.SaveRecords(ctx, collection.Zones, []record.Record{serverZone("z1", 5, "Hole 1 North")}))
		require.NoError(t, c.SetCheckpoint(ctx, collection.Zones, 5))
		got, err := c.Get(ctx, collection.Zones, "z1")
		require.NoError(t, err)
		assert.Equal(t, "Hole 1 (local)", got.Data["name"])

		require.NoError(t, c.DiscardMutation(ctx, m.Seq))

		n, err := c.PendingCount(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
		_, err = c.Get(ctx, collection.Zones, "z1")
		assert.ErrorIs(t, err, ErrNotFound)

		cp, err := c.GetCheckpoint(ctx, collection.Zones)
		require.NoError(t, err)
		assert.Equal(t, int64(2), cp)

		require.NoError(t, c.SaveRecords(ctx, collection.Zones, []record.Record{serverZone("z1", 5, "Hole 1 North")}))
		got, err = c.Get(ctx, collection.Zones, "z1")
		require.NoError(t, err)
		assert.Equal(t, "Hole 1 North", got.Data["name"])
		assert.Equal(t, int64(5), got.Version)
	})

	t.Run("unpushed create is forgotten", func(t *testing.T) {
		c := openTestCache(t)
		require.NoError(t, c.SetCheckpoint(ctx, collection.Zones, 7))

		m, err := c.EnqueueMutation(ctx, collection.Zones, OpCreate, record.Record{
			Data: map[string]any{"name": "Nursery", "type": "other"},
		})
		require.NoError(t, err)
		require.NoError(t, c.MarkRejected(ctx, collection.Zones, m.Seq, sync.Rejected{
			TempID: m.RecordKey, Reason: sync.ReasonError, Message: "type: invalid",
		}))

		require.NoError(t, c.DiscardMutation(ctx, m.Seq))

		all, err := c.ReadAll(ctx, collection.Zones)
		require.NoError(t, err)
		assert.Empty(t, all)
		cp, err := c.GetCheckpoint(ctx, collection.Zones)
		require.NoError(t, err)
		assert.Equal(t, int64(7), cp)
	})

	t.Run("conflict is cleared with its mutation", func(t *testing.T) {
		c := openTestCache(t)
		m, _ := setupConflict(t, c)

		require.NoError(t, c.DiscardMutation(ctx, m.Seq))

		conflicts, err := c.Conflicts(ctx)
		require.NoError(t, err)
		assert.Empty(t, conflicts)
	})

	t.Run("unknown seq", func(t *testing.T) {
		c := openTestCache(t)
		assert.ErrorIs(t, c.DiscardMutation(ctx, 42), ErrMutationNotFound)
	})
}
