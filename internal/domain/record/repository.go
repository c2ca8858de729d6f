package record

import (
	"context"
)

// Store - версионированное хранилище записей одного тенанта.
// Экземпляр привязан к своему разделу данных при создании; ни один метод
// не принимает идентификатор тенанта, поэтому межтенантный запрос выразить нельзя.
type Store interface {
	// Changed возвращает все записи коллекции с version > since, по возрастанию версии.
	Changed(ctx context.Context, collection string, since int64) ([]Record, error)

	// Get возвращает запись по id или ErrNotFound.
	Get(ctx context.Context, collection, id string) (*Record, error)

	// Create сохраняет новую запись с version = 1 и серверным id.
	// Повторный Create с тем же TempID возвращает уже созданную запись.
	Create(ctx context.Context, collection string, rec *Record) (*Record, error)

	// Update атомарно проверяет версию и применяет изменения:
	// ErrNotFound, если записи нет; ErrVersionConflict, если серверная
	// версия больше knownVersion. Иначе данные сливаются с patch,
	// version увеличивается ровно на 1.
	Update(ctx context.Context, collection, id string, knownVersion int64, patch map[string]any, deleted bool) (*Record, error)
}
