// Package memory - хранилища в памяти процесса. Используются драйвером
// STORAGE_DRIVER=memory и тестами; данные теряются при перезапуске.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"greenkeep/internal/domain/record"
)

// RecordStore - record.Store одного тенанта.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]map[string]*record.Record // collection -> id -> record
	tempIDs map[string]map[string]string         // collection -> tempId -> id
	now     func() time.Time
}

func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[string]map[string]*record.Record),
		tempIDs: make(map[string]map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *RecordStore) Changed(ctx context.Context, collection string, since int64) ([]record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []record.Record
	for _, r := range s.records[collection] {
		if r.Version > since {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Version != out[j].Version {
			return out[i].Version < out[j].Version
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *RecordStore) Get(ctx context.Context, collection, id string) (*record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[collection][id]
	if !ok {
		return nil, record.ErrNotFound
	}
	c := r.Clone()
	return &c, nil
}

func (s *RecordStore) Create(ctx context.Context, collection string, rec *record.Record) (*record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.TempID != "" {
		if id, ok := s.tempIDs[collection][rec.TempID]; ok {
			c := s.records[collection][id].Clone()
			return &c, nil
		}
	}

	now := s.now()
	r := &record.Record{
		ID:        uuid.NewString(),
		TempID:    rec.TempID,
		Version:   1,
		Deleted:   rec.Deleted,
		Data:      record.StripProtected(rec.Data),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if s.records[collection] == nil {
		s.records[collection] = make(map[string]*record.Record)
		s.tempIDs[collection] = make(map[string]string)
	}
	s.records[collection][r.ID] = r
	if r.TempID != "" {
		s.tempIDs[collection][r.TempID] = r.ID
	}

	c := r.Clone()
	return &c, nil
}

func (s *RecordStore) Update(ctx context.Context, collection, id string, knownVersion int64, patch map[string]any, deleted bool) (*record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[collection][id]
	if !ok {
		return nil, record.ErrNotFound
	}
	if r.Version > knownVersion {
		return nil, record.ErrVersionConflict
	}

	r.Data = record.Merge(r.Data, record.StripProtected(patch))
	r.Deleted = deleted
	r.Version++
	r.UpdatedAt = s.now()

	c := r.Clone()
	return &c, nil
}
