// pkg/constants/constants.go
package constants

//============== RESERVATION STATUSES ==============

type ReservationStatus string

const (
	ReservationRequested ReservationStatus = "Requested"
	ReservationApproved  ReservationStatus = "Approved"
	ReservationRejected  ReservationStatus = "Rejected"
	ReservationCancelled ReservationStatus = "Cancelled"
)

// ActiveReservationStatuses - статусы, которые занимают оборудование.
var ActiveReservationStatuses = []string{
	string(ReservationRequested),
	string(ReservationApproved),
}

// Финальные статусы: строка остается в таблице для аудита.
func (s ReservationStatus) IsFinal() bool {
	return s == ReservationRejected || s == ReservationCancelled
}

func (s ReservationStatus) IsActive() bool {
	return s == ReservationRequested || s == ReservationApproved
}

//============== EQUIPMENT ==============

type MaintenanceStatus string

const (
	MaintenanceReady       MaintenanceStatus = "Ready"
	MaintenanceUnderRepair MaintenanceStatus = "UnderRepair"
)

func (m MaintenanceStatus) IsValid() bool {
	return m == MaintenanceReady || m == MaintenanceUnderRepair
}

type UsageCondition string

const (
	ConditionNew  UsageCondition = "New"
	ConditionUsed UsageCondition = "Used"
)

func (c UsageCondition) IsValid() bool {
	return c == ConditionNew || c == ConditionUsed
}

//============== CACHE KEYS ==============

const (
	// Формат: auth:role:user:<userID> -> role
	CacheKeyUserRole = "auth:role:user:%d"
)

//============== EVENTS ==============

const (
	EventReservationCreated       = "reservation.created"
	EventReservationStatusChanged = "reservation.status_changed"
	EventScanClassified           = "scan.classified"
	EventTagAssigned              = "tag.assigned"
)
