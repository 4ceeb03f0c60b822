package entities

import (
	"inventory-system/pkg/types"
)

// EquipmentType - широкая категория, например "Барометр".
type EquipmentType struct {
	ID   uint64 `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	types.BaseEntity
}
