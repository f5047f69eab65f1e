package model

import "time"

// Reservation statuses.
const (
	ReservationBooked    = "BOOKED"
	ReservationSeated    = "SEATED"
	ReservationCompleted = "COMPLETED"
	ReservationCancelled = "CANCELLED"
	ReservationNoShow    = "NO_SHOW"
)

// Reservation books one table for a party over [StartsAt, EndsAt).
//
// Fields:
//
//	ID               – primary key identifier.
//	OrganizationID   – owning organization.
//	TableID          – reserved table.
//	CreatedBy        – user who took the booking.
//	GuestName        – name the booking is under.
//	GuestPhone       – optional contact number.
//	PartySize        – number of guests, at most the table capacity.
//	StartsAt, EndsAt – booked interval in UTC.
//	Status           – BOOKED, SEATED, COMPLETED, CANCELLED or NO_SHOW.
//	ConfirmationCode – uuid handed to the guest.
type Reservation struct {
	ID               uint64    `json:"id"`                    // reservations.id
	OrganizationID   uint64    `json:"organization_id"`       // reservations.organization_id
	TableID          uint64    `json:"table_id"`              // reservations.table_id
	CreatedBy        uint64    `json:"created_by"`            // reservations.created_by
	GuestName        string    `json:"guest_name"`            // reservations.guest_name
	GuestPhone       *string   `json:"guest_phone,omitempty"` // reservations.guest_phone (nullable)
	PartySize        int       `json:"party_size"`            // reservations.party_size
	StartsAt         time.Time `json:"starts_at"`             // reservations.starts_at
	EndsAt           time.Time `json:"ends_at"`               // reservations.ends_at
	Status           string    `json:"status"`                // reservations.status
	ConfirmationCode string    `json:"confirmation_code"`     // reservations.confirmation_code
	Notes            *string   `json:"notes,omitempty"`       // reservations.notes (nullable)
	CreatedAt        time.Time `json:"created_at"`            // reservations.created_at
	UpdatedAt        time.Time `json:"updated_at"`            // reservations.updated_at
}

// Active reports whether the reservation still holds its table.
func (r Reservation) Active() bool {
	return r.Status == ReservationBooked || r.Status == ReservationSeated
}

var reservationTransitions = map[string][]string{
	ReservationBooked: {ReservationSeated, ReservationCancelled, ReservationNoShow},
	ReservationSeated: {ReservationCompleted},
}

// CanTransition reports whether a reservation may move from one status to
// another.  COMPLETED, CANCELLED and NO_SHOW are terminal.
func CanTransition(from, to string) bool {
	for _, s := range reservationTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidReservationStatus reports whether s is a known status.
func ValidReservationStatus(s string) bool {
	switch s {
	case ReservationBooked, ReservationSeated, ReservationCompleted, ReservationCancelled, ReservationNoShow:
		return true
	}
	return false
}
