package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-manager/internal/model"
)

// ReservationRepo stores table reservations.  All timestamps are UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `r.id, r.organization_id, r.table_id, r.created_by, r.guest_name, r.guest_phone,
	r.party_size, r.starts_at, r.ends_at, r.status, r.confirmation_code, r.notes, r.created_at, r.updated_at`

func scanReservation(row interface{ Scan(...any) error }) (model.Reservation, error) {
	var (
		res          model.Reservation
		phone, notes sql.NullString
	)
	err := row.Scan(&res.ID, &res.OrganizationID, &res.TableID, &res.CreatedBy, &res.GuestName, &phone,
		&res.PartySize, &res.StartsAt, &res.EndsAt, &res.Status, &res.ConfirmationCode, &notes, &res.CreatedAt, &res.UpdatedAt)
	res.GuestPhone = stringPtr(phone)
	res.Notes = stringPtr(notes)
	return res, err
}

// Create books a table.  Inside one transaction it locks the table row,
// checks the party fits and that no active reservation on the table overlaps
// [StartsAt, EndsAt), then inserts.  Locking the table row serializes
// concurrent bookings of the same table.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		const qTable = `SELECT t.capacity FROM dining_tables t
		                JOIN halls h ON h.id = t.hall_id
		                WHERE t.id = ? AND h.organization_id = ? FOR UPDATE`
		var capacity int
		if err := tx.QueryRowContext(ctx, qTable, res.TableID, res.OrganizationID).Scan(&capacity); err != nil {
			return notFound(err, ErrTableNotFound)
		}
		if res.PartySize > capacity {
			return ErrPartyTooLarge
		}

		const qOverlap = `SELECT COUNT(*) FROM reservations
		                  WHERE table_id = ? AND status IN ('BOOKED','SEATED')
		                  AND starts_at < ? AND ends_at > ? FOR UPDATE`
		var n int
		if err := tx.QueryRowContext(ctx, qOverlap, res.TableID, res.EndsAt.UTC(), res.StartsAt.UTC()).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return ErrReservationOverlap
		}

		if res.Status == "" {
			res.Status = model.ReservationBooked
		}
		const qInsert = `INSERT INTO reservations
		    (organization_id, table_id, created_by, guest_name, guest_phone, party_size, starts_at, ends_at, status, confirmation_code, notes)
		    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		result, err := tx.ExecContext(ctx, qInsert,
			res.OrganizationID, res.TableID, res.CreatedBy, res.GuestName, nullString(res.GuestPhone),
			res.PartySize, res.StartsAt.UTC(), res.EndsAt.UTC(), res.Status, res.ConfirmationCode, nullString(res.Notes))
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		got, err := scanReservation(tx.QueryRowContext(ctx,
			"SELECT "+reservationColumns+" FROM reservations r WHERE r.id = ?", id))
		if err != nil {
			return err
		}
		*res = got
		return nil
	})
}

// GetByIDAndOrg returns ErrReservationNotFound when no row matches.
func (r *ReservationRepo) GetByIDAndOrg(ctx context.Context, id, orgID uint64) (model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations r WHERE r.id = ? AND r.organization_id = ?", id, orgID))
	if err != nil {
		return model.Reservation{}, notFound(err, ErrReservationNotFound)
	}
	return res, nil
}

// ReservationFilter narrows List.  Zero values mean no filter.
type ReservationFilter struct {
	Date   time.Time // any instant on the wanted UTC day
	HallID uint64
}

// buildListQuery assembles the list query for a filter.
func buildListQuery(orgID uint64, f ReservationFilter) (string, []any) {
	var b strings.Builder
	args := []any{orgID}
	b.WriteString("SELECT " + reservationColumns + " FROM reservations r")
	if f.HallID != 0 {
		b.WriteString(" JOIN dining_tables t ON t.id = r.table_id")
	}
	b.WriteString(" WHERE r.organization_id = ?")
	if f.HallID != 0 {
		b.WriteString(" AND t.hall_id = ?")
		args = append(args, f.HallID)
	}
	if !f.Date.IsZero() {
		d := f.Date.UTC()
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		b.WriteString(" AND r.starts_at >= ? AND r.starts_at < ?")
		args = append(args, day, day.Add(24*time.Hour))
	}
	b.WriteString(" ORDER BY r.starts_at, r.id")
	return b.String(), args
}

// List returns the organization's reservations ordered by start time.
func (r *ReservationRepo) List(ctx context.Context, orgID uint64, f ReservationFilter) ([]model.Reservation, error) {
	q, args := buildListQuery(orgID, f)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// UpdateStatus moves a reservation to status `to`.  Transitions not allowed
// by model.CanTransition fail with ErrInvalidTransition.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id, orgID uint64, to string) (model.Reservation, error) {
	var out model.Reservation
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		var from string
		err := tx.QueryRowContext(ctx,
			"SELECT status FROM reservations WHERE id = ? AND organization_id = ? FOR UPDATE", id, orgID).Scan(&from)
		if err != nil {
			return notFound(err, ErrReservationNotFound)
		}
		if !model.CanTransition(from, to) {
			return ErrInvalidTransition
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", to, id); err != nil {
			return err
		}
		out, err = scanReservation(tx.QueryRowContext(ctx,
			"SELECT "+reservationColumns+" FROM reservations r WHERE r.id = ?", id))
		return err
	})
	return out, err
}

// Delete removes a reservation.
func (r *ReservationRepo) Delete(ctx context.Context, id, orgID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reservations WHERE id = ? AND organization_id = ?", id, orgID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReservationNotFound
	}
	return nil
}
