package migration

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	// Blank import required for PostgreSQL driver registration for migrations
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"golang.org/x/exp/slog"
)

// Migrator - интерфейс для самой библиотеки migrate.Migrate
type Migrator interface {
	Up() error
	Close() (error, error)
}

// MigrationEngine - фабрика для создания мигратора (чтобы не лезть в ФС и БД в тестах)
type MigrationEngine func(sourceURL, databaseURL string) (Migrator, error)

type Migration struct {
	engine MigrationEngine
	log    *slog.Logger
}

func NewMigration(engine MigrationEngine, log *slog.Logger) *Migration {
	if engine == nil {
		engine = DefaultEngine
	}
	return &Migration{
		engine: engine,
		log:    log,
	}
}

// DefaultEngine - реальная реализация для продакшена
func DefaultEngine(sourceURL, databaseURL string) (Migrator, error) {
	return migrate.New(sourceURL, databaseURL)
}

// Up применяет миграции из каталога dir к базе databaseURI.
func (mg *Migration) Up(dir, databaseURI string) error {
	return mg.run("file://"+dir, databaseURI)
}

// UpSchema применяет миграции внутри схемы schema: search_path указывает
// на нее, поэтому и таблицы, и schema_migrations создаются там же.
func (mg *Migration) UpSchema(dir, databaseURI, schema string) error {
	dbURL, err := WithSearchPath(databaseURI, schema)
	if err != nil {
		return err
	}
	return mg.run("file://"+dir, dbURL)
}

// WithSearchPath добавляет search_path к строке подключения postgres.
func WithSearchPath(databaseURI, schema string) (string, error) {
	u, err := url.Parse(databaseURI)
	if err != nil {
		return "", fmt.Errorf("parse database uri: %w", err)
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (mg *Migration) run(sourceURL, databaseURL string) (err error) {
	m, err := mg.engine(sourceURL, databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		serr, dberr := m.Close()
		if serr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration source error: %v", err, serr)
			} else {
				err = serr
			}
		}
		if dberr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration database error: %v", err, dberr)
			} else {
				err = dberr
			}
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.log.Debug("migrations up to date", slog.String("source", sourceURL))
			return nil
		}
		return fmt.Errorf("migration up: %w", err)
	}
	mg.log.Info("migrations applied", slog.String("source", sourceURL))
	return nil
}
