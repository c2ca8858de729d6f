// Package collection описывает синхронизируемые коллекции и их схемы.
// Пакет общий для сервера и клиента: клиент проверяет изменения до постановки
// в очередь, сервер - при приеме push, по одним и тем же правилам.
package collection

import (
	"sort"
)

// Имена синхронизируемых коллекций (как на проводе).
const (
	Zones          = "zones"
	Tasks          = "tasks"
	TeamMembers    = "teamMembers"
	Equipment      = "equipment"
	InventoryItems = "inventoryItems"
)

// Spec - описание коллекции: имя на проводе, таблица хранения, поля.
type Spec struct {
	Name   string
	Table  string
	Fields []Field
}

var registry = map[string]Spec{
	Zones:          zoneSpec,
	Tasks:          taskSpec,
	TeamMembers:    teamMemberSpec,
	Equipment:      equipmentSpec,
	InventoryItems: inventoryItemSpec,
}

// Lookup возвращает описание коллекции по имени.
func Lookup(name string) (Spec, bool) {
	s, ok := registry[name]
	return s, ok
}

// Names returns the syncable collection names in a stable order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every collection spec ordered by name.
func All() []Spec {
	names := Names()
	specs := make([]Spec, 0, len(names))
	for _, name := range names {
		specs = append(specs, registry[name])
	}
	return specs
}

// IsSyncable reports whether name is a known syncable collection.
func IsSyncable(name string) bool {
	_, ok := registry[name]
	return ok
}
