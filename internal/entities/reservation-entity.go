package entities

import (
	"time"

	"inventory-system/pkg/constants"
	"inventory-system/pkg/types"
)

type Reservation struct {
	ID          uint64                      `json:"id" db:"id"`
	RequesterID uint64                      `json:"requester_id" db:"requester_id"`
	StartDate   time.Time                   `json:"start_date" db:"start_date"`
	EndDate     time.Time                   `json:"end_date" db:"end_date"`
	Status      constants.ReservationStatus `json:"status" db:"status"`
	ResponderID *uint64                     `json:"responder_id,omitempty" db:"responder_id"`

	types.BaseEntity

	Lines []ReservationLine `json:"lines,omitempty" db:"-"`
}

func (r *Reservation) Range() types.DateRange {
	return types.DateRange{Start: r.StartDate, End: r.EndDate}
}

// ReservationLine - строка брони. Несколько строк на одну модель суммируются.
type ReservationLine struct {
	ID            uint64 `json:"id" db:"id"`
	ReservationID uint64 `json:"reservation_id" db:"reservation_id"`
	ModelID       uint64 `json:"model_id" db:"model_id"`
	TypeID        uint64 `json:"type_id" db:"type_id"`
	Quantity      int    `json:"quantity" db:"quantity"`
}
