package dto

import (
	"inventory-system/internal/entities"
	"inventory-system/pkg/types"
)

type ReservationLineDTO struct {
	ModelID  uint64 `json:"model_id" validate:"required"`
	TypeID   uint64 `json:"type_id" validate:"required"`
	Quantity int    `json:"quantity"`
}

// CreateReservationDTO. Пустой список строк и количество проверяются ядром,
// чтобы клиент получил код причины, а не общую ошибку формата.
type CreateReservationDTO struct {
	StartDate string               `json:"start_date" validate:"required,date"`
	EndDate   string               `json:"end_date" validate:"required,date"`
	Lines     []ReservationLineDTO `json:"lines" validate:"dive"`
}

type CreatedReservationDTO struct {
	ReservationID uint64 `json:"reservation_id"`
	Status        string `json:"status"`
}

type ReservationLineResponseDTO struct {
	ID       uint64 `json:"id"`
	ModelID  uint64 `json:"model_id"`
	TypeID   uint64 `json:"type_id"`
	Quantity int    `json:"quantity"`
}

type ReservationDTO struct {
	ID          uint64                       `json:"id"`
	RequesterID uint64                       `json:"requester_id"`
	StartDate   string                       `json:"start_date"`
	EndDate     string                       `json:"end_date"`
	Status      string                       `json:"status"`
	ResponderID *uint64                      `json:"responder_id,omitempty"`
	Lines       []ReservationLineResponseDTO `json:"lines"`
	CreatedAt   string                       `json:"created_at,omitempty"`
}

type ReservationStatusDTO struct {
	ReservationID uint64 `json:"reservation_id"`
	Status        string `json:"status"`
	Removed       bool   `json:"removed"`
}

func NewReservationDTO(r *entities.Reservation) ReservationDTO {
	lines := make([]ReservationLineResponseDTO, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, ReservationLineResponseDTO{
			ID:       l.ID,
			ModelID:  l.ModelID,
			TypeID:   l.TypeID,
			Quantity: l.Quantity,
		})
	}
	res := ReservationDTO{
		ID:          r.ID,
		RequesterID: r.RequesterID,
		StartDate:   r.StartDate.Format(types.DateLayout),
		EndDate:     r.EndDate.Format(types.DateLayout),
		Status:      string(r.Status),
		ResponderID: r.ResponderID,
		Lines:       lines,
	}
	if r.CreatedAt != nil {
		res.CreatedAt = r.CreatedAt.Format("2006-01-02 15:04:05")
	}
	return res
}
