package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/exp/slog"

	"greenkeep/internal/domain/collection"
	"greenkeep/internal/domain/record"
)

// Servicer - протокол синхронизации поверх хранилища одного тенанта.
// Тенант уже определен вызывающей стороной; сервис не выполняет авторизацию.
type Servicer interface {
	// Pull возвращает записи, версия которых выше известной клиенту.
	Pull(ctx context.Context, store record.Store, req PullRequest) (PullResponse, error)

	// Push применяет изменения клиента по правилу last-write-wins.
	Push(ctx context.Context, store record.Store, req PushRequest) (*PushResponse, error)
}

type Service struct {
	log *slog.Logger
}

func NewService(log *slog.Logger) *Service {
	return &Service{
		log: log.With(slog.String("component", "sync")),
	}
}

func (s *Service) Pull(ctx context.Context, store record.Store, req PullRequest) (PullResponse, error) {
	if store == nil {
		return nil, ErrNoStore
	}

	changes := make(PullResponse)
	for _, name := range collection.Names() {
		since := req.LastSyncVersions[name]
		if since < 0 {
			since = 0
		}

		records, err := store.Changed(ctx, name, since)
		if err != nil {
			return nil, fmt.Errorf("pull %s: %w", name, err)
		}
		if len(records) > 0 {
			changes[name] = records
		}
	}

	s.log.Debug("pull served", slog.Int("collections", len(changes)))
	return changes, nil
}

func (s *Service) Push(ctx context.Context, store record.Store, req PushRequest) (*PushResponse, error) {
	if store == nil {
		return nil, ErrNoStore
	}

	resp := newPushResponse()

	// порядок коллекций фиксирован, порядок записей внутри - как в запросе
	names := make([]string, 0, len(req.Changes))
	for name := range req.Changes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		accepted := []Accepted{}
		rejected := []Rejected{}

		for _, raw := range req.Changes[name] {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			rec, err := DecodeRecord(raw)
			if err != nil {
				rej := Rejected{Reason: ReasonError, Message: err.Error()}
				rej.ID, rej.TempID = recordKeys(raw)
				s.log.Warn("push record rejected",
					slog.String("collection", name),
					slog.String("record", rej.Key()),
					slog.String("reason", rej.Reason),
					slog.String("error", err.Error()))
				rejected = append(rejected, rej)
				continue
			}

			a, r := s.apply(ctx, store, name, rec)
			if r != nil {
				rejected = append(rejected, *r)
				continue
			}
			accepted = append(accepted, *a)
		}

		resp.Accepted[name] = accepted
		resp.Rejected[name] = rejected
	}

	return resp, nil
}

// apply обрабатывает одну запись. Ошибка одной записи не прерывает пакет.
func (s *Service) apply(ctx context.Context, store record.Store, name string, rec record.Record) (*Accepted, *Rejected) {
	reject := func(reason string, err error) *Rejected {
		r := &Rejected{ID: rec.ID, TempID: rec.TempID, Reason: reason}
		if err != nil {
			r.Message = err.Error()
			s.log.Warn("push record rejected",
				slog.String("collection", name),
				slog.String("record", rec.Key()),
				slog.String("reason", reason),
				slog.String("error", err.Error()))
		}
		return r
	}

	if !collection.IsSyncable(name) {
		return nil, reject(ReasonError, collection.ErrUnknownCollection)
	}

	data := record.StripProtected(rec.Data)

	if rec.IsNew() {
		if err := collection.Validate(name, data, collection.Full); err != nil {
			return nil, reject(ReasonError, err)
		}

		created, err := store.Create(ctx, name, &record.Record{TempID: rec.TempID, Data: data, Deleted: rec.Deleted})
		if err != nil {
			return nil, reject(ReasonError, err)
		}
		return &Accepted{TempID: rec.TempID, ID: created.ID, Version: created.Version}, nil
	}

	existing, err := store.Get(ctx, name, rec.ID)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return nil, reject(ReasonNotFound, nil)
		}
		return nil, reject(ReasonError, err)
	}
	if existing.Version > rec.Version {
		return nil, conflict(rec, existing)
	}

	if err := collection.Validate(name, data, collection.Partial); err != nil {
		return nil, reject(ReasonError, err)
	}

	updated, err := store.Update(ctx, name, rec.ID, rec.Version, data, rec.Deleted)
	switch {
	case errors.Is(err, record.ErrNotFound):
		return nil, reject(ReasonNotFound, nil)
	case errors.Is(err, record.ErrVersionConflict):
		// запись обновили между чтением и записью
		current, gerr := store.Get(ctx, name, rec.ID)
		if gerr != nil {
			return nil, reject(ReasonError, gerr)
		}
		return nil, conflict(rec, current)
	case err != nil:
		return nil, reject(ReasonError, err)
	}

	return &Accepted{ID: updated.ID, Version: updated.Version}, nil
}

func conflict(rec record.Record, server *record.Record) *Rejected {
	return &Rejected{
		ID:            rec.ID,
		TempID:        rec.TempID,
		Reason:        ReasonConflict,
		ServerVersion: server.Version,
		ServerRecord:  server,
	}
}
