package record

import (
	"maps"
	"time"
)

// Служебные поля записи. Они управляются протоколом синхронизации
// и никогда не попадают в пользовательские данные.
const (
	FieldID        = "id"
	FieldTempID    = "tempId"
	FieldVersion   = "version"
	FieldDeleted   = "deleted"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

var protectedFields = []string{
	FieldID,
	FieldTempID,
	FieldVersion,
	FieldDeleted,
	FieldCreatedAt,
	FieldUpdatedAt,
}

// Record - синхронизируемая запись любой коллекции (зона, задача, сотрудник,
// техника, склад). Поля сущности лежат в Data и для протокола непрозрачны.
type Record struct {
	ID        string         `json:"id,omitempty" doc:"Server-assigned identifier; absent for records created offline"`
	TempID    string         `json:"tempId,omitempty" doc:"Client-side identifier of a record not yet persisted on the server"`
	Version   int64          `json:"version,omitempty" doc:"Per-record version counter known to the sender"`
	Deleted   bool           `json:"deleted,omitempty" doc:"Soft-delete flag"`
	Data      map[string]any `json:"data,omitempty" doc:"Entity fields"`
	CreatedAt time.Time      `json:"createdAt,omitzero" required:"false"`
	UpdatedAt time.Time      `json:"updatedAt,omitzero" required:"false"`
}

// IsNew сообщает, что запись еще не сохранялась на сервере.
func (r *Record) IsNew() bool {
	return r.ID == ""
}

// Key возвращает идентификатор записи для локального хранения:
// серверный id, а до первой синхронизации - tempId.
func (r *Record) Key() string {
	if r.ID != "" {
		return r.ID
	}
	return r.TempID
}

// Clone returns a copy whose Data map can be modified independently.
func (r Record) Clone() Record {
	r.Data = maps.Clone(r.Data)
	return r
}

// StripProtected returns a copy of data without the fields owned by the
// sync protocol.
func StripProtected(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	for _, f := range protectedFields {
		delete(out, f)
	}
	return out
}

// Merge накладывает patch поверх base (поверхностно, по полям верхнего уровня).
func Merge(base, patch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(patch))
	maps.Copy(out, base)
	maps.Copy(out, patch)
	return out
}

// MaxVersion returns the highest version among records, or 0 for an empty slice.
func MaxVersion(records []Record) int64 {
	var max int64
	for _, r := range records {
		if r.Version > max {
			max = r.Version
		}
	}
	return max
}
