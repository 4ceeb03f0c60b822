package entities

import "time"

// ScanEvent - запись журнала антенн. Только добавляется, никогда не меняется.
type ScanEvent struct {
	ID               uint64    `json:"id" db:"id"`
	EquipmentTagID   int       `json:"equipment_tag_id" db:"equipment_tag_id"`
	ScanTime         time.Time `json:"scan_time" db:"scan_time"`
	IsWalkIn         bool      `json:"is_walk_in" db:"is_walk_in"`
	LocationReaderID string    `json:"location_reader_id" db:"location_reader_id"`
}
