package dto

import (
	"github.com/aarondl/null/v8"

	"inventory-system/internal/entities"
)

// IngestScanDTO - пинг антенны. Без scan_time используется время получения.
type IngestScanDTO struct {
	TagID    string    `json:"tag_id" validate:"required,tag_hex"`
	ReaderID string    `json:"reader_id" validate:"required,max=64"`
	ScanTime null.Time `json:"scan_time"`
}

type ScanEventDTO struct {
	ID               uint64 `json:"id"`
	TagID            string `json:"tag_id"`
	ScanTime         string `json:"scan_time"`
	IsWalkIn         bool   `json:"is_walk_in"`
	LocationReaderID string `json:"location_reader_id"`
}

func NewScanEventDTO(e entities.ScanEvent) ScanEventDTO {
	return ScanEventDTO{
		ID:               e.ID,
		TagID:            entities.FormatTagID(e.EquipmentTagID),
		ScanTime:         e.ScanTime.UTC().Format("2006-01-02T15:04:05Z07:00"),
		IsWalkIn:         e.IsWalkIn,
		LocationReaderID: e.LocationReaderID,
	}
}
