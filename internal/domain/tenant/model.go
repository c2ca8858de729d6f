package tenant

import (
	"strings"
	"time"
)

const partitionPrefix = "greenkeep_t_"

// Tenant - организация (гольф-клуб), владеющая отдельным разделом данных.
type Tenant struct {
	ID        string    `json:"id" doc:"Tenant identifier"`
	Slug      string    `json:"slug" doc:"URL-safe tenant name"`
	Name      string    `json:"name" doc:"Display name"`
	IsActive  bool      `json:"isActive" doc:"Suspended tenants are rejected"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PartitionName возвращает имя раздела данных тенанта: greenkeep_t_<slug>,
// дефисы заменяются подчеркиваниями.
func (t Tenant) PartitionName() string {
	return PartitionName(t.Slug)
}

func PartitionName(slug string) string {
	return partitionPrefix + strings.ReplaceAll(slug, "-", "_")
}
