package events

import (
	"time"

	"github.com/google/uuid"

	"inventory-system/pkg/constants"
)

// Meta - общие поля всех доменных событий.
type Meta struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newMeta() Meta {
	return Meta{EventID: uuid.NewString(), OccurredAt: time.Now().UTC()}
}

type ReservationCreatedEvent struct {
	Meta
	ReservationID uint64 `json:"reservation_id"`
	RequesterID   uint64 `json:"requester_id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Status        string `json:"status"`
	Units         int    `json:"units"`
}

func NewReservationCreated(reservationID, requesterID uint64, start, end, status string, units int) ReservationCreatedEvent {
	return ReservationCreatedEvent{
		Meta:          newMeta(),
		ReservationID: reservationID,
		RequesterID:   requesterID,
		StartDate:     start,
		EndDate:       end,
		Status:        status,
		Units:         units,
	}
}

func (e ReservationCreatedEvent) Name() string { return constants.EventReservationCreated }

type ReservationStatusChangedEvent struct {
	Meta
	ReservationID uint64 `json:"reservation_id"`
	RequesterID   uint64 `json:"requester_id"`
	ActorID       uint64 `json:"actor_id"`
	From          string `json:"from"`
	To            string `json:"to"`
}

func NewReservationStatusChanged(reservationID, requesterID, actorID uint64, from, to string) ReservationStatusChangedEvent {
	return ReservationStatusChangedEvent{
		Meta:          newMeta(),
		ReservationID: reservationID,
		RequesterID:   requesterID,
		ActorID:       actorID,
		From:          from,
		To:            to,
	}
}

func (e ReservationStatusChangedEvent) Name() string { return constants.EventReservationStatusChanged }

type ScanClassifiedEvent struct {
	Meta
	TagID    string    `json:"tag_id"`
	SerialID string    `json:"serial_id"`
	ReaderID string    `json:"reader_id"`
	IsWalkIn bool      `json:"is_walk_in"`
	ScanTime time.Time `json:"scan_time"`
}

func NewScanClassified(tagID, serialID, readerID string, isWalkIn bool, scanTime time.Time) ScanClassifiedEvent {
	return ScanClassifiedEvent{
		Meta:     newMeta(),
		TagID:    tagID,
		SerialID: serialID,
		ReaderID: readerID,
		IsWalkIn: isWalkIn,
		ScanTime: scanTime,
	}
}

func (e ScanClassifiedEvent) Name() string { return constants.EventScanClassified }

// TagAssignedEvent. Owner - серийный номер для оборудования или id пользователя.
type TagAssignedEvent struct {
	Meta
	Namespace string `json:"namespace"`
	TagID     string `json:"tag_id"`
	Owner     string `json:"owner"`
}

func NewTagAssigned(namespace, tagID, owner string) TagAssignedEvent {
	return TagAssignedEvent{Meta: newMeta(), Namespace: namespace, TagID: tagID, Owner: owner}
}

func (e TagAssignedEvent) Name() string { return constants.EventTagAssigned }

// All - имена всех событий, на которые подписываются внешние публикаторы.
var All = []string{
	constants.EventReservationCreated,
	constants.EventReservationStatusChanged,
	constants.EventScanClassified,
	constants.EventTagAssigned,
}
