package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"greenkeep/internal/domain/record"
	"greenkeep/internal/domain/tenant"
)

// SchemaMigrator применяет миграции тенанта в его схеме.
type SchemaMigrator interface {
	UpSchema(dir, databaseURI, schema string) error
}

// Opener создает схему тенанта, накатывает миграции
// и возвращает хранилище, привязанное к этой схеме.
type Opener struct {
	pool          *pgxpool.Pool
	migrator      SchemaMigrator
	databaseURI   string
	migrationsDir string
	log           *slog.Logger
}

func NewOpener(pool *pgxpool.Pool, migrator SchemaMigrator, databaseURI, migrationsDir string, log *slog.Logger) *Opener {
	return &Opener{
		pool:          pool,
		migrator:      migrator,
		databaseURI:   databaseURI,
		migrationsDir: migrationsDir,
		log:           log,
	}
}

func (o *Opener) Open(ctx context.Context, t tenant.Tenant) (record.Store, error) {
	schema := t.PartitionName()

	if _, err := o.pool.Exec(ctx, `CREATE SCHEMA IF NOT EXISTS `+pgx.Identifier{schema}.Sanitize()); err != nil {
		return nil, fmt.Errorf("create schema %s: %w", schema, err)
	}
	if err := o.migrator.UpSchema(o.migrationsDir, o.databaseURI, schema); err != nil {
		return nil, fmt.Errorf("migrate schema %s: %w", schema, err)
	}

	return NewRecordRepository(o.pool, schema, o.log), nil
}
