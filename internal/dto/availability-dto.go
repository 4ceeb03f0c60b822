package dto

import "github.com/aarondl/null/v8"

type ModelAvailabilityDTO struct {
	ModelID        uint64      `json:"model_id"`
	TypeID         uint64      `json:"type_id"`
	Name           string      `json:"name"`
	PhotoRef       null.String `json:"photo_ref"`
	AvailableCount int         `json:"available_count"`
}

type AvailabilityQueryDTO struct {
	TypeID    uint64 `query:"type_id" validate:"required"`
	StartDate string `query:"start" validate:"required,date"`
	EndDate   string `query:"end" validate:"required,date"`
}

type AvailableModelsQueryDTO struct {
	StartDate string `query:"start" validate:"required,date"`
	EndDate   string `query:"end" validate:"required,date"`
}
