package sync

import (
	"greenkeep/internal/domain/record"
)

// Причины отклонения записи при push.
const (
	ReasonNotFound = "not_found"
	ReasonConflict = "conflict"
	ReasonError    = "error"
)

// Accepted - запись, принятая сервером.
type Accepted struct {
	TempID  string `json:"tempId,omitempty" doc:"Echoed client identifier for records created offline"`
	ID      string `json:"id"`
	Version int64  `json:"version"`
}

// Rejected - запись, которую сервер не применил.
type Rejected struct {
	ID            string         `json:"id,omitempty"`
	TempID        string         `json:"tempId,omitempty"`
	Reason        string         `json:"reason" enum:"not_found,conflict,error"`
	Message       string         `json:"message,omitempty"`
	ServerVersion int64          `json:"serverVersion,omitempty"`
	ServerRecord  *record.Record `json:"serverRecord,omitempty" doc:"Current server state, present for conflicts"`
}

// Key возвращает идентификатор отклоненной записи, как его знает клиент.
func (r Rejected) Key() string {
	if r.ID != "" {
		return r.ID
	}
	return r.TempID
}
