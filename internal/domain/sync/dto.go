package sync

import (
	"encoding/json"
	"fmt"

	"greenkeep/internal/domain/record"
)

// PullRequest - последние известные клиенту версии по коллекциям.
type PullRequest struct {
	LastSyncVersions map[string]int64 `json:"lastSyncVersions,omitempty" doc:"Collection name to last synced version; missing collections start from 0"`
}

// PullResponse - измененные записи по коллекциям. Коллекции без изменений не включаются.
type PullResponse map[string][]record.Record

// PushRequest - локальные изменения клиента по коллекциям.
// Записи не типизированы на уровне схемы: каждая разбирается отдельно,
// и запись неверного формата отклоняется, не затрагивая остальные.
type PushRequest struct {
	Changes map[string][]json.RawMessage `json:"changes" required:"true" doc:"Collection name to created or updated records"`
}

// NewPushRequest собирает запрос из записей по коллекциям.
func NewPushRequest(changes map[string][]record.Record) (PushRequest, error) {
	req := PushRequest{Changes: make(map[string][]json.RawMessage, len(changes))}
	for name, records := range changes {
		for _, rec := range records {
			if err := req.Add(name, rec); err != nil {
				return PushRequest{}, err
			}
		}
	}
	return req, nil
}

// Add добавляет запись в конец списка коллекции.
func (r *PushRequest) Add(name string, rec record.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", name, rec.Key(), err)
	}
	if r.Changes == nil {
		r.Changes = make(map[string][]json.RawMessage)
	}
	r.Changes[name] = append(r.Changes[name], raw)
	return nil
}

// Len - число записей во всех коллекциях.
func (r PushRequest) Len() int {
	n := 0
	for _, records := range r.Changes {
		n += len(records)
	}
	return n
}

// DecodeRecord разбирает одну запись из push. Неизвестные поля игнорируются.
func DecodeRecord(raw json.RawMessage) (record.Record, error) {
	var rec record.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return record.Record{}, fmt.Errorf("malformed record: %w", err)
	}
	return rec, nil
}

// recordKeys достает id и tempId из записи, которую не удалось разобрать,
// чтобы клиент мог сопоставить отказ со своей очередью.
func recordKeys(raw json.RawMessage) (id, tempID string) {
	var keys struct {
		ID     any `json:"id"`
		TempID any `json:"tempId"`
	}
	if json.Unmarshal(raw, &keys) != nil {
		return "", ""
	}
	id, _ = keys.ID.(string)
	tempID, _ = keys.TempID.(string)
	return id, tempID
}

// PushResponse - итог обработки по каждой коллекции из запроса.
type PushResponse struct {
	Accepted map[string][]Accepted `json:"accepted"`
	Rejected map[string][]Rejected `json:"rejected"`
}

func newPushResponse() *PushResponse {
	return &PushResponse{
		Accepted: make(map[string][]Accepted),
		Rejected: make(map[string][]Rejected),
	}
}
