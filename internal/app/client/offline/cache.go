package offline

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/exp/slog"

	"greenkeep/internal/domain/record"
	"greenkeep/internal/domain/sync"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	collection TEXT NOT NULL,
	key        TEXT NOT NULL,
	id         TEXT NOT NULL DEFAULT '',
	temp_id    TEXT NOT NULL DEFAULT '',
	version    INTEGER NOT NULL DEFAULT 0,
	deleted    BOOLEAN NOT NULL DEFAULT 0,
	data       TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (collection, key)
);

CREATE TABLE IF NOT EXISTS pending_mutations (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	collection  TEXT NOT NULL,
	operation   TEXT NOT NULL,
	record_key  TEXT NOT NULL,
	payload     TEXT NOT NULL,
	enqueued_at TEXT NOT NULL,
	last_error  TEXT NOT NULL DEFAULT '',
	last_reason TEXT NOT NULL DEFAULT '',
	UNIQUE (collection, record_key)
);

CREATE TABLE IF NOT EXISTS checkpoints (
	collection TEXT PRIMARY KEY,
	version    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS conflicts (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	collection    TEXT NOT NULL,
	record_key    TEXT NOT NULL,
	reason        TEXT NOT NULL,
	message       TEXT NOT NULL DEFAULT '',
	server_record TEXT,
	detected_at   TEXT NOT NULL,
	UNIQUE (collection, record_key)
);
`

// Cache - локальное зеркало данных тенанта и очередь изменений.
// Работает только с локальным файлом SQLite, сеть не нужна.
type Cache struct {
	db  *sql.DB
	log *slog.Logger
	now func() time.Time
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func Open(path string, log *slog.Logger) (*Cache, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}
	// один процесс, одна запись за раз
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка инициализации таблиц: %w", err)
	}

	return &Cache{
		db:  db,
		log: log.With(slog.String("component", "offline_cache")),
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// SaveRecords сохраняет записи, полученные с сервера. Записи с ожидающими
// отправки изменениями не трогаются: локальная версия остается видимой
// до подтверждения или разрешения конфликта. Более старая версия не
// перезаписывает более новую.
func (c *Cache) SaveRecords(ctx context.Context, collection string, records []record.Record) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		for _, rec := range records {
			if rec.ID == "" {
				continue
			}
			pending, err := pendingFor(ctx, tx, collection, rec.ID)
			if err != nil {
				return err
			}
			if pending != nil {
				continue
			}
			if err := upsertRecord(ctx, tx, collection, rec.ID, rec, true); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadAll возвращает неудаленные записи коллекции.
func (c *Cache) ReadAll(ctx context.Context, collection string) ([]record.Record, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, temp_id, version, deleted, data, created_at, updated_at
		FROM records
		WHERE collection = ? AND deleted = 0
		ORDER BY created_at, key`, collection)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}
	defer rows.Close()

	var out []record.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Get возвращает запись по серверному id или tempId.
func (c *Cache) Get(ctx context.Context, collection, key string) (*record.Record, error) {
	rec, err := getRecord(ctx, c.db, collection, key)
	if err != nil {
		return nil, err
	}
	if rec.Deleted {
		return nil, ErrNotFound
	}
	return rec, nil
}

// EnqueueMutation применяет изменение к локальной копии и ставит его
// в очередь в одной транзакции. На запись приходится не больше одного
// ожидающего изменения: новое сливается с уже стоящим в очереди и получает
// новый seq. Удаление записи, созданной офлайн и еще не отправленной,
// убирает и запись, и ее create; в этом случае возвращается nil.
func (c *Cache) EnqueueMutation(ctx context.Context, collection string, op Operation, rec record.Record) (*Mutation, error) {
	var m *Mutation
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		switch op {
		case OpCreate:
			m, err = c.enqueueCreate(ctx, tx, collection, rec)
		case OpUpdate:
			m, err = c.enqueueUpdate(ctx, tx, collection, rec)
		case OpDelete:
			m, err = c.enqueueDelete(ctx, tx, collection, rec.Key())
		default:
			err = fmt.Errorf("%w: %s", ErrUnknownOperation, op)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (c *Cache) enqueueCreate(ctx context.Context, tx *sql.Tx, collection string, rec record.Record) (*Mutation, error) {
	now := c.now()
	local := record.Record{
		TempID:    rec.TempID,
		Data:      record.StripProtected(rec.Data),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if local.TempID == "" {
		local.TempID = uuid.NewString()
	}

	if _, err := getRecord(ctx, tx, collection, local.TempID); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrRecordExists, local.TempID)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if err := upsertRecord(ctx, tx, collection, local.TempID, local, false); err != nil {
		return nil, err
	}
	return c.replaceMutation(ctx, tx, collection, OpCreate, local.TempID, local)
}

func (c *Cache) enqueueUpdate(ctx context.Context, tx *sql.Tx, collection string, rec record.Record) (*Mutation, error) {
	key := rec.Key()
	local, err := getRecord(ctx, tx, collection, key)
	if err != nil {
		return nil, err
	}
	if local.Deleted {
		return nil, ErrNotFound
	}

	local.Data = record.Merge(local.Data, record.StripProtected(rec.Data))
	local.UpdatedAt = c.now()
	if err := upsertRecord(ctx, tx, collection, key, *local, false); err != nil {
		return nil, err
	}

	pending, err := pendingFor(ctx, tx, collection, key)
	if err != nil {
		return nil, err
	}
	if pending != nil && pending.Operation == OpCreate {
		return c.replaceMutation(ctx, tx, collection, OpCreate, key, record.Record{
			TempID: local.TempID,
			Data:   local.Data,
		})
	}

	return c.replaceMutation(ctx, tx, collection, OpUpdate, key, record.Record{
		ID:      local.ID,
		Version: local.Version,
		Data:    local.Data,
	})
}

func (c *Cache) enqueueDelete(ctx context.Context, tx *sql.Tx, collection, key string) (*Mutation, error) {
	local, err := getRecord(ctx, tx, collection, key)
	if err != nil {
		return nil, err
	}
	if local.Deleted {
		return nil, ErrNotFound
	}

	pending, err := pendingFor(ctx, tx, collection, key)
	if err != nil {
		return nil, err
	}
	// сервер о записи не знает - просто забываем ее
	if pending != nil && pending.Operation == OpCreate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pending_mutations WHERE seq = ?`, pending.Seq); err != nil {
			return nil, fmt.Errorf("drop pending create: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE collection = ? AND key = ?`, collection, key); err != nil {
			return nil, fmt.Errorf("drop local record: %w", err)
		}
		return nil, nil
	}

	local.Deleted = true
	local.UpdatedAt = c.now()
	if err := upsertRecord(ctx, tx, collection, key, *local, false); err != nil {
		return nil, err
	}

	return c.replaceMutation(ctx, tx, collection, OpDelete, key, record.Record{
		ID:      local.ID,
		Version: local.Version,
		Deleted: true,
		Data:    local.Data,
	})
}

func (c *Cache) replaceMutation(ctx context.Context, tx *sql.Tx, collection string, op Operation, key string, payload record.Record) (*Mutation, error) {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM pending_mutations WHERE collection = ? AND record_key = ?`, collection, key); err != nil {
		return nil, fmt.Errorf("coalesce mutation: %w", err)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	m := &Mutation{
		Collection: collection,
		Operation:  op,
		RecordKey:  key,
		Payload:    payload,
		EnqueuedAt: c.now(),
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO pending_mutations (collection, operation, record_key, payload, enqueued_at)
		VALUES (?, ?, ?, ?, ?)`,
		collection, string(op), key, string(raw), formatTime(m.EnqueuedAt))
	if err != nil {
		return nil, fmt.Errorf("enqueue mutation: %w", err)
	}
	if m.Seq, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("mutation seq: %w", err)
	}
	return m, nil
}

// PendingMutations возвращает очередь в порядке постановки.
func (c *Cache) PendingMutations(ctx context.Context) ([]Mutation, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT seq, collection, operation, record_key, payload, enqueued_at, last_error, last_reason
		FROM pending_mutations
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("read queue: %w", err)
	}
	defer rows.Close()

	var out []Mutation
	for rows.Next() {
		m, err := scanMutation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (c *Cache) PendingCount(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_mutations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count queue: %w", err)
	}
	return n, nil
}

// DequeueMutations удаляет подтвержденные сервером изменения.
func (c *Cache) DequeueMutations(ctx context.Context, seqs []int64) error {
	if len(seqs) == 0 {
		return nil
	}
	return c.withTx(ctx, func(tx *sql.Tx) error {
		for _, seq := range seqs {
			if _, err := tx.ExecContext(ctx, `DELETE FROM pending_mutations WHERE seq = ?`, seq); err != nil {
				return fmt.Errorf("dequeue %d: %w", seq, err)
			}
		}
		return nil
	})
}

func (c *Cache) GetCheckpoint(ctx context.Context, collection string) (int64, error) {
	var v int64
	err := c.db.QueryRowContext(ctx, `SELECT version FROM checkpoints WHERE collection = ?`, collection).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read checkpoint %s: %w", collection, err)
	}
	return v, nil
}

// SetCheckpoint сдвигает контрольную точку вперед; меньшее значение игнорируется.
func (c *Cache) SetCheckpoint(ctx context.Context, collection string, version int64) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO checkpoints (collection, version) VALUES (?, ?)
		ON CONFLICT (collection) DO UPDATE SET version = MAX(checkpoints.version, excluded.version)`,
		collection, version)
	if err != nil {
		return fmt.Errorf("set checkpoint %s: %w", collection, err)
	}
	return nil
}

func (c *Cache) Checkpoints(ctx context.Context) (map[string]int64, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT collection, version FROM checkpoints`)
	if err != nil {
		return nil, fmt.Errorf("read checkpoints: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			name string
			v    int64
		)
		if err := rows.Scan(&name, &v); err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, rows.Err()
}

// ApplyAccepted переносит подтверждение сервера на локальную копию:
// tempId заменяется серверным id, версия обновляется. Изменение, поставленное
// в очередь после отправки, перебазируется на новую версию.
func (c *Cache) ApplyAccepted(ctx context.Context, collection string, acc sync.Accepted) error {
	oldKey := acc.TempID
	if oldKey == "" {
		oldKey = acc.ID
	}

	return c.withTx(ctx, func(tx *sql.Tx) error {
		if oldKey != acc.ID {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM records WHERE collection = ? AND key = ?`, collection, acc.ID); err != nil {
				return fmt.Errorf("clear target key: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE records SET key = ?, id = ?, version = ?
			WHERE collection = ? AND key = ?`,
			acc.ID, acc.ID, acc.Version, collection, oldKey); err != nil {
			return fmt.Errorf("apply accepted %s: %w", oldKey, err)
		}

		pending, err := pendingFor(ctx, tx, collection, oldKey)
		if err != nil {
			return err
		}
		if pending != nil {
			op := pending.Operation
			if op == OpCreate {
				op = OpUpdate
			}
			payload := pending.Payload
			payload.ID = acc.ID
			payload.TempID = ""
			payload.Version = acc.Version
			if err := rewriteMutation(ctx, tx, pending.Seq, op, acc.ID, payload); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			`DELETE FROM conflicts WHERE collection = ? AND record_key IN (?, ?)`, collection, oldKey, acc.ID)
		return err
	})
}

// MarkRejected помечает изменение причиной отказа. Конфликты и отсутствующие
// на сервере записи сохраняются для решения пользователем; изменение остается
// в очереди.
func (c *Cache) MarkRejected(ctx context.Context, collection string, seq int64, rej sync.Rejected) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE pending_mutations SET last_error = ?, last_reason = ? WHERE seq = ?`,
			rej.Message, rej.Reason, seq); err != nil {
			return fmt.Errorf("annotate mutation %d: %w", seq, err)
		}

		if rej.Reason != sync.ReasonConflict && rej.Reason != sync.ReasonNotFound {
			return nil
		}

		var server sql.NullString
		if rej.ServerRecord != nil {
			raw, err := json.Marshal(rej.ServerRecord)
			if err != nil {
				return fmt.Errorf("encode server record: %w", err)
			}
			server = sql.NullString{String: string(raw), Valid: true}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO conflicts (collection, record_key, reason, message, server_record, detected_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (collection, record_key) DO UPDATE SET
				reason = excluded.reason,
				message = excluded.message,
				server_record = excluded.server_record,
				detected_at = excluded.detected_at`,
			collection, rej.Key(), rej.Reason, rej.Message, server, formatTime(c.now()))
		if err != nil {
			return fmt.Errorf("store conflict: %w", err)
		}
		return nil
	})
}

func (c *Cache) Conflicts(ctx context.Context) ([]Conflict, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT seq, collection, record_key, reason, message, server_record, detected_at
		FROM conflicts
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("read conflicts: %w", err)
	}
	defer rows.Close()

	var out []Conflict
	for rows.Next() {
		cf, err := scanConflict(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cf)
	}
	return out, rows.Err()
}

// ResolveConflict закрывает конфликт. "server" отбрасывает локальное изменение
// и принимает серверную копию. "client" перебазирует изменение на серверную
// версию, чтобы следующий push перезаписал сервер; если запись на сервере
// пропала, она будет создана заново.
func (c *Cache) ResolveConflict(ctx context.Context, seq int64, resolution string) error {
	if resolution != ResolveServer && resolution != ResolveClient {
		return fmt.Errorf("%w: %q", ErrUnknownResolution, resolution)
	}

	return c.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT seq, collection, record_key, reason, message, server_record, detected_at
			FROM conflicts WHERE seq = ?`, seq)
		cf, err := scanConflict(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrConflictNotFound
		}
		if err != nil {
			return err
		}

		pending, err := pendingFor(ctx, tx, cf.Collection, cf.RecordKey)
		if err != nil {
			return err
		}

		switch resolution {
		case ResolveServer:
			err = c.takeServer(ctx, tx, cf, pending)
		case ResolveClient:
			err = c.keepClient(ctx, tx, cf, pending)
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM conflicts WHERE seq = ?`, seq)
		return err
	})
}

// DiscardMutation убирает изменение из очереди вместе с его конфликтом.
// Запись, созданная офлайн, удаляется. Для записи, известной серверу, удаляется
// локальная копия, а контрольная точка коллекции опускается ниже ее версии:
// следующий pull вернет серверную копию, даже если раньше она была пропущена
// из-за ожидающего изменения.
func (c *Cache) DiscardMutation(ctx context.Context, seq int64) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT seq, collection, operation, record_key, payload, enqueued_at, last_error, last_reason
			FROM pending_mutations WHERE seq = ?`, seq)
		m, err := scanMutation(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", ErrMutationNotFound, seq)
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM pending_mutations WHERE seq = ?`, seq); err != nil {
			return fmt.Errorf("drop mutation: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM conflicts WHERE collection = ? AND record_key = ?`,
			m.Collection, m.RecordKey); err != nil {
			return fmt.Errorf("drop conflict: %w", err)
		}

		local, err := getRecord(ctx, tx, m.Collection, m.RecordKey)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE collection = ? AND key = ?`,
			m.Collection, m.RecordKey); err != nil {
			return fmt.Errorf("drop local record: %w", err)
		}
		if local.ID == "" {
			return nil
		}

		since := max(local.Version-1, 0)
		if _, err := tx.ExecContext(ctx, `UPDATE checkpoints SET version = MIN(version, ?) WHERE collection = ?`,
			since, m.Collection); err != nil {
			return fmt.Errorf("rewind checkpoint %s: %w", m.Collection, err)
		}
		c.log.Debug("mutation discarded",
			slog.String("collection", m.Collection),
			slog.String("key", m.RecordKey),
			slog.Int64("checkpoint", since),
		)
		return nil
	})
}

func (c *Cache) takeServer(ctx context.Context, tx *sql.Tx, cf *Conflict, pending *Mutation) error {
	if pending != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pending_mutations WHERE seq = ?`, pending.Seq); err != nil {
			return fmt.Errorf("drop mutation: %w", err)
		}
	}

	if cf.ServerRecord == nil {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM records WHERE collection = ? AND key = ?`, cf.Collection, cf.RecordKey)
		return err
	}
	return upsertRecord(ctx, tx, cf.Collection, cf.RecordKey, *cf.ServerRecord, false)
}

func (c *Cache) keepClient(ctx context.Context, tx *sql.Tx, cf *Conflict, pending *Mutation) error {
	if pending == nil {
		return nil
	}

	payload := pending.Payload
	op := pending.Operation

	if cf.ServerRecord != nil {
		payload.Version = cf.ServerRecord.Version
		if _, err := tx.ExecContext(ctx, `UPDATE records SET version = ? WHERE collection = ? AND key = ?`,
			cf.ServerRecord.Version, cf.Collection, cf.RecordKey); err != nil {
			return fmt.Errorf("rebase local record: %w", err)
		}
		return rewriteMutation(ctx, tx, pending.Seq, op, cf.RecordKey, payload)
	}

	// запись пропала с сервера
	if payload.Deleted {
		_, err := tx.ExecContext(ctx, `DELETE FROM pending_mutations WHERE seq = ?`, pending.Seq)
		return err
	}
	payload.TempID = cf.RecordKey
	payload.ID = ""
	payload.Version = 0
	if _, err := tx.ExecContext(ctx, `UPDATE records SET temp_id = ?, id = '', version = 0 WHERE collection = ? AND key = ?`,
		cf.RecordKey, cf.Collection, cf.RecordKey); err != nil {
		return fmt.Errorf("reset local record: %w", err)
	}
	return rewriteMutation(ctx, tx, pending.Seq, OpCreate, cf.RecordKey, payload)
}

func rewriteMutation(ctx context.Context, q querier, seq int64, op Operation, key string, payload record.Record) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		UPDATE pending_mutations
		SET operation = ?, record_key = ?, payload = ?, last_error = '', last_reason = ''
		WHERE seq = ?`, string(op), key, string(raw), seq)
	if err != nil {
		return fmt.Errorf("rewrite mutation %d: %w", seq, err)
	}
	return nil
}

func pendingFor(ctx context.Context, q querier, collection, key string) (*Mutation, error) {
	row := q.QueryRowContext(ctx, `
		SELECT seq, collection, operation, record_key, payload, enqueued_at, last_error, last_reason
		FROM pending_mutations
		WHERE collection = ? AND record_key = ?`, collection, key)
	m, err := scanMutation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func getRecord(ctx context.Context, q querier, collection, key string) (*record.Record, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, temp_id, version, deleted, data, created_at, updated_at
		FROM records
		WHERE collection = ? AND key = ?`, collection, key)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// upsertRecord пишет локальную копию под ключом key. С onlyNewer запись
// не перезаписывается более старой версией.
func upsertRecord(ctx context.Context, q querier, collection, key string, rec record.Record, onlyNewer bool) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("encode data: %w", err)
	}

	query := `
		INSERT INTO records (collection, key, id, temp_id, version, deleted, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (collection, key) DO UPDATE SET
			id = excluded.id,
			temp_id = excluded.temp_id,
			version = excluded.version,
			deleted = excluded.deleted,
			data = excluded.data,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`
	if onlyNewer {
		query += `
		WHERE excluded.version >= records.version`
	}

	_, err = q.ExecContext(ctx, query,
		collection, key, rec.ID, rec.TempID, rec.Version, rec.Deleted, string(data),
		formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save record %s: %w", key, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*record.Record, error) {
	var (
		rec                  record.Record
		data                 string
		createdAt, updatedAt string
	)
	if err := s.Scan(&rec.ID, &rec.TempID, &rec.Version, &rec.Deleted, &data, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
		return nil, fmt.Errorf("decode record data: %w", err)
	}
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)
	return &rec, nil
}

func scanMutation(s scanner) (*Mutation, error) {
	var (
		m          Mutation
		op         string
		payload    string
		enqueuedAt string
	)
	if err := s.Scan(&m.Seq, &m.Collection, &op, &m.RecordKey, &payload, &enqueuedAt, &m.LastError, &m.LastReason); err != nil {
		return nil, err
	}
	m.Operation = Operation(op)
	if err := json.Unmarshal([]byte(payload), &m.Payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	m.EnqueuedAt = parseTime(enqueuedAt)
	return &m, nil
}

func scanConflict(s scanner) (*Conflict, error) {
	var (
		cf         Conflict
		server     sql.NullString
		detectedAt string
	)
	if err := s.Scan(&cf.Seq, &cf.Collection, &cf.RecordKey, &cf.Reason, &cf.Message, &server, &detectedAt); err != nil {
		return nil, err
	}
	if server.Valid && server.String != "" {
		var rec record.Record
		if err := json.Unmarshal([]byte(server.String), &rec); err != nil {
			return nil, fmt.Errorf("decode server record: %w", err)
		}
		cf.ServerRecord = &rec
	}
	cf.DetectedAt = parseTime(detectedAt)
	return &cf, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
