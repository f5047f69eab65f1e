// Package repository holds the MySQL data access layer.  The sentinel values
// below let handlers tell failure scenarios apart with errors.Is and map
// them to HTTP status codes.
package repository

import (
	"database/sql"
	"errors"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by another organization.  Handlers translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be performed
// because of dependent records, such as deleting a hall that still has
// upcoming reservations.  Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

var (
	ErrOrganizationNotFound  = errors.New("organization not found")
	ErrEmailExists           = errors.New("email already exists")
	ErrHallNotFound          = errors.New("hall not found")
	ErrHallNameExists        = errors.New("hall name already exists")
	ErrTableNotFound         = errors.New("table not found")
	ErrTableNumberExists     = errors.New("table number already exists in hall")
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrReservationOverlap    = errors.New("table already reserved for that time")
	ErrPartyTooLarge         = errors.New("party size exceeds table capacity")
	ErrInvalidTransition     = errors.New("invalid reservation status transition")
	ErrInventoryItemNotFound = errors.New("inventory item not found")
	ErrInventoryNameExists   = errors.New("inventory item name already exists")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrNoticeNotFound        = errors.New("notice not found")
)

// notFound maps sql.ErrNoRows to the repository's own sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}
