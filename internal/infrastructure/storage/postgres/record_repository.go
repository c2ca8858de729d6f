package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"greenkeep/internal/domain/collection"
	"greenkeep/internal/domain/record"
)

const recordColumns = `id::text, COALESCE(client_temp_id, ''), version, deleted, data, created_at, updated_at`

// RecordRepository - record.Store поверх схемы одного тенанта.
// Схема фиксируется при создании и подставляется во все запросы.
type RecordRepository struct {
	pool   *pgxpool.Pool
	schema string
	log    *slog.Logger
}

func NewRecordRepository(pool *pgxpool.Pool, schema string, log *slog.Logger) *RecordRepository {
	return &RecordRepository{
		pool:   pool,
		schema: schema,
		log:    log.With("component", "record_repository", "schema", schema),
	}
}

func (r *RecordRepository) table(name string) (string, error) {
	spec, ok := collection.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", collection.ErrUnknownCollection, name)
	}
	return pgx.Identifier{r.schema, spec.Table}.Sanitize(), nil
}

func (r *RecordRepository) Changed(ctx context.Context, name string, since int64) ([]record.Record, error) {
	table, err := r.table(name)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + recordColumns + ` FROM ` + table + ` WHERE version > $1 ORDER BY version, id`
	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		r.log.Error("failed to list changes", "collection", name, "error", err)
		return nil, fmt.Errorf("list changes: %w", err)
	}
	defer rows.Close()

	var out []record.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func (r *RecordRepository) Get(ctx context.Context, name, id string) (*record.Record, error) {
	table, err := r.table(name)
	if err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, record.ErrNotFound
	}

	rec, err := scanRecord(r.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM `+table+` WHERE id = $1`, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, record.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// Create вставляет запись с version = 1. При повторе с тем же client_temp_id
// ON CONFLICT возвращает существующую строку без изменений.
func (r *RecordRepository) Create(ctx context.Context, name string, in *record.Record) (*record.Record, error) {
	table, err := r.table(name)
	if err != nil {
		return nil, err
	}

	data := record.StripProtected(in.Data)
	query := `
		INSERT INTO ` + table + ` (id, client_temp_id, version, deleted, data, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), 1, $3, $4, NOW(), NOW())
		ON CONFLICT (client_temp_id) DO UPDATE SET client_temp_id = EXCLUDED.client_temp_id
		RETURNING ` + recordColumns

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, uuid.New(), in.TempID, in.Deleted, data))
	if err != nil {
		r.log.Error("failed to create record", "collection", name, "temp_id", in.TempID, "error", err)
		return nil, fmt.Errorf("create record: %w", err)
	}
	return rec, nil
}

// Update проверяет версию и пишет в одном UPDATE; строка блокируется
// до конца оператора, поэтому параллельные обновления не теряются.
func (r *RecordRepository) Update(ctx context.Context, name, id string, knownVersion int64, patch map[string]any, deleted bool) (*record.Record, error) {
	table, err := r.table(name)
	if err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, record.ErrNotFound
	}

	patch = record.StripProtected(patch)
	query := `
		UPDATE ` + table + `
		SET data = data || $3::jsonb, deleted = $4, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version <= $2
		RETURNING ` + recordColumns

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, uid, knownVersion, patch, deleted))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.log.Error("failed to update record", "collection", name, "id", id, "error", err)
		return nil, fmt.Errorf("update record: %w", err)
	}

	// ни одной строки: записи нет или версия на сервере новее
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, uid).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check record: %w", err)
	}
	if !exists {
		return nil, record.ErrNotFound
	}
	return nil, record.ErrVersionConflict
}

func scanRecord(row pgx.Row) (*record.Record, error) {
	var rec record.Record
	err := row.Scan(
		&rec.ID,
		&rec.TempID,
		&rec.Version,
		&rec.Deleted,
		&rec.Data,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if rec.Data == nil {
		rec.Data = map[string]any{}
	}
	return &rec, nil
}
