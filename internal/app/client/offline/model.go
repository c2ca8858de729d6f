package offline

import (
	"errors"
	"time"

	"greenkeep/internal/domain/record"
)

type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Варианты разрешения конфликта.
const (
	ResolveServer = "server" // принять серверную версию, локальное изменение отбросить
	ResolveClient = "client" // перезаписать сервер локальной версией
)

var (
	ErrNotFound          = errors.New("local record not found")
	ErrRecordExists      = errors.New("local record already exists")
	ErrConflictNotFound  = errors.New("conflict not found")
	ErrMutationNotFound  = errors.New("pending mutation not found")
	ErrUnknownOperation  = errors.New("unknown mutation operation")
	ErrUnknownResolution = errors.New("unknown conflict resolution")
)

// Mutation - локальное изменение, еще не подтвержденное сервером.
type Mutation struct {
	Seq        int64         `json:"seq"`
	Collection string        `json:"collection"`
	Operation  Operation     `json:"operation"`
	RecordKey  string        `json:"recordKey"`
	Payload    record.Record `json:"payload"`
	EnqueuedAt time.Time     `json:"enqueuedAt"`
	LastError  string        `json:"lastError,omitempty"`
	LastReason string        `json:"lastReason,omitempty"`
}

// Conflict - отклоненное сервером изменение, которое ждет решения пользователя.
type Conflict struct {
	Seq          int64          `json:"seq"`
	Collection   string         `json:"collection"`
	RecordKey    string         `json:"recordKey"`
	Reason       string         `json:"reason"`
	Message      string         `json:"message,omitempty"`
	ServerRecord *record.Record `json:"serverRecord,omitempty"`
	DetectedAt   time.Time      `json:"detectedAt"`
}
