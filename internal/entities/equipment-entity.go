package entities

import (
	"inventory-system/pkg/constants"
	"inventory-system/pkg/types"
)

// EquipmentUnit - один физический экземпляр с серийным номером.
// TypeID всегда совпадает с TypeID модели: его копирует сервис при записи.
type EquipmentUnit struct {
	SerialID          string                      `json:"serial_id" db:"serial_id"`
	ModelID           uint64                      `json:"model_id" db:"model_id"`
	TypeID            uint64                      `json:"type_id" db:"type_id"`
	MaintenanceStatus constants.MaintenanceStatus `json:"maintenance_status" db:"maintenance_status"`
	UsageCondition    constants.UsageCondition    `json:"usage_condition" db:"usage_condition"`
	CurrentLocation   *string                     `json:"current_location,omitempty" db:"current_location"`
	TagID             *int                        `json:"tag_id,omitempty" db:"tag_id"`
	HomeLocations     []string                    `json:"home_locations" db:"home_locations"`

	types.BaseEntity
}

func (u *EquipmentUnit) IsReady() bool {
	return u.MaintenanceStatus == constants.MaintenanceReady
}
