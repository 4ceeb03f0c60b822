package dto

import (
	"github.com/aarondl/null/v8"

	"inventory-system/internal/entities"
)

type CreateEquipmentDTO struct {
	SerialID          string      `json:"serial_id" validate:"required,max=64"`
	ModelID           uint64      `json:"model_id" validate:"required"`
	UsageCondition    null.String `json:"usage_condition" validate:"omitempty"`
	MaintenanceStatus null.String `json:"maintenance_status" validate:"omitempty"`
	HomeLocations     []string    `json:"home_locations" validate:"omitempty,dive,required,max=64"`
}

type UpdateEquipmentDTO struct {
	ModelID           null.Uint64 `json:"model_id"`
	UsageCondition    null.String `json:"usage_condition"`
	MaintenanceStatus null.String `json:"maintenance_status"`
	HomeLocations     []string    `json:"home_locations,omitempty" validate:"omitempty,dive,required,max=64"`
}

type EquipmentDTO struct {
	SerialID          string   `json:"serial_id"`
	ModelID           uint64   `json:"model_id"`
	TypeID            uint64   `json:"type_id"`
	MaintenanceStatus string   `json:"maintenance_status"`
	UsageCondition    string   `json:"usage_condition"`
	CurrentLocation   *string  `json:"current_location"`
	TagID             *string  `json:"tag_id"`
	HomeLocations     []string `json:"home_locations"`
}

type ImportRowErrorDTO struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResultDTO struct {
	Created int                 `json:"created"`
	Errors  []ImportRowErrorDTO `json:"errors"`
}

func NewEquipmentDTO(u *entities.EquipmentUnit) EquipmentDTO {
	res := EquipmentDTO{
		SerialID:          u.SerialID,
		ModelID:           u.ModelID,
		TypeID:            u.TypeID,
		MaintenanceStatus: string(u.MaintenanceStatus),
		UsageCondition:    string(u.UsageCondition),
		CurrentLocation:   u.CurrentLocation,
		HomeLocations:     u.HomeLocations,
	}
	if u.TagID != nil {
		hex := entities.FormatTagID(*u.TagID)
		res.TagID = &hex
	}
	return res
}
