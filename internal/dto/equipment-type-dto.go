package dto

import "github.com/aarondl/null/v8"

type CreateEquipmentTypeDTO struct {
	Name string `json:"name" validate:"required,max=255"`
}

type CreateEquipmentModelDTO struct {
	TypeID   uint64      `json:"type_id" validate:"required"`
	Name     string      `json:"name" validate:"required,max=255"`
	PhotoRef null.String `json:"photo_ref"`
}

type UpdateEquipmentModelDTO struct {
	Name     string      `json:"name" validate:"required,max=255"`
	PhotoRef null.String `json:"photo_ref"`
}

type EquipmentModelDTO struct {
	ID       uint64      `json:"id"`
	TypeID   uint64      `json:"type_id"`
	Name     string      `json:"name"`
	PhotoRef null.String `json:"photo_ref"`
}

type ShortEquipmentTypeDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}
