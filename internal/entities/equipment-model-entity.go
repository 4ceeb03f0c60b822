package entities

import (
	"inventory-system/pkg/types"
)

// EquipmentModel - позиция каталога, например "Oakton Aneroid barometer".
// После создания меняются только имя и фото.
type EquipmentModel struct {
	ID       uint64  `json:"id" db:"id"`
	TypeID   uint64  `json:"type_id" db:"type_id"`
	Name     string  `json:"name" db:"name"`
	PhotoRef *string `json:"photo_ref,omitempty" db:"photo_ref"`

	types.BaseEntity
}
