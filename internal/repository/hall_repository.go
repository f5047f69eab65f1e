package repository // repository holds data access logic for domain entities

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/restaurant-manager/internal/database"
	"github.com/iliyamo/restaurant-manager/internal/layout"
	"github.com/iliyamo/restaurant-manager/internal/model"
)

// HallRepo provides methods to create, retrieve and update halls.  Every
// query is scoped to an organization.
type HallRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewHallRepo constructs a HallRepo with the given DB handle.
func NewHallRepo(db *sql.DB) *HallRepo {
	return &HallRepo{db: db}
}

const hallColumns = "id, organization_id, name, description, canvas_width, canvas_height, created_at, updated_at"

func scanHall(row interface{ Scan(...any) error }) (model.Hall, error) {
	var (
		h    model.Hall
		desc sql.NullString
	)
	err := row.Scan(&h.ID, &h.OrganizationID, &h.Name, &desc, &h.CanvasWidth, &h.CanvasHeight, &h.CreatedAt, &h.UpdatedAt)
	h.Description = stringPtr(desc)
	return h, err
}

// Create inserts a new hall.  OrganizationID, Name and the canvas size must
// be set.  The stored row is read back into h.
func (r *HallRepo) Create(ctx context.Context, h *model.Hall) error {
	const qInsert = `INSERT INTO halls (organization_id, name, description, canvas_width, canvas_height)
	                 VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, h.OrganizationID, h.Name, nullString(h.Description), h.CanvasWidth, h.CanvasHeight)
	if err != nil {
		if database.IsDuplicateEntry(err) {
			return ErrHallNameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := r.GetByIDAndOrg(ctx, uint64(id), h.OrganizationID)
	if err != nil {
		return err
	}
	*h = got
	return nil
}

// GetByIDAndOrg retrieves a hall only if it belongs to the organization.
func (r *HallRepo) GetByIDAndOrg(ctx context.Context, id, orgID uint64) (model.Hall, error) {
	q := "SELECT " + hallColumns + " FROM halls WHERE id = ? AND organization_id = ?"
	h, err := scanHall(r.db.QueryRowContext(ctx, q, id, orgID))
	if err != nil {
		return model.Hall{}, notFound(err, ErrHallNotFound)
	}
	return h, nil
}

// ListByOrg returns all halls of the organization ordered by name.
func (r *HallRepo) ListByOrg(ctx context.Context, orgID uint64) ([]model.Hall, error) {
	q := "SELECT " + hallColumns + " FROM halls WHERE organization_id = ? ORDER BY name, id"
	rows, err := r.db.QueryContext(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Hall{}
	for rows.Next() {
		h, err := scanHall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Update writes name, description and canvas size.  Tables that no longer
// fit a shrunk canvas are clamped back inside it in the same transaction;
// the number of moved tables is returned.
func (r *HallRepo) Update(ctx context.Context, h *model.Hall, m layout.Metrics) (int, error) {
	moved := 0
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		const q = `UPDATE halls
		           SET name = ?, description = ?, canvas_width = ?, canvas_height = ?, updated_at = CURRENT_TIMESTAMP
		           WHERE id = ? AND organization_id = ?`
		res, err := tx.ExecContext(ctx, q, h.Name, nullString(h.Description), h.CanvasWidth, h.CanvasHeight, h.ID, h.OrganizationID)
		if err != nil {
			if database.IsDuplicateEntry(err) {
				return ErrHallNameExists
			}
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// MySQL reports 0 for unchanged rows too; confirm the hall exists.
			var one int
			if err := tx.QueryRowContext(ctx, "SELECT 1 FROM halls WHERE id = ? AND organization_id = ?", h.ID, h.OrganizationID).Scan(&one); err != nil {
				return notFound(err, ErrHallNotFound)
			}
		}

		tables, err := listTablesByHall(ctx, tx, h.ID, true)
		if err != nil {
			return err
		}
		var changed []model.TablePosition
		for _, t := range tables {
			lt := t.Layout()
			p := m.ClampTable(lt, lt.Position, h.Bounds())
			if p != lt.Position {
				changed = append(changed, model.TablePosition{ID: t.ID, PosX: p.X, PosY: p.Y})
			}
		}
		moved = len(changed)
		return updatePositionsTx(ctx, tx, h.ID, changed)
	})
	return moved, err
}

// Delete removes a hall and, by cascade, its tables.  It refuses with
// ErrConflict while any table in the hall has an active reservation that
// has not ended yet.
func (r *HallRepo) Delete(ctx context.Context, id, orgID uint64) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM halls WHERE id = ? AND organization_id = ? FOR UPDATE", id, orgID).Scan(&one)
		if err != nil {
			return notFound(err, ErrHallNotFound)
		}
		const qUpcoming = `SELECT COUNT(*) FROM reservations r
		                   JOIN dining_tables t ON t.id = r.table_id
		                   WHERE t.hall_id = ? AND r.status IN ('BOOKED','SEATED') AND r.ends_at > ?`
		var n int
		if err := tx.QueryRowContext(ctx, qUpcoming, id, time.Now().UTC()).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM halls WHERE id = ? AND organization_id = ?", id, orgID)
		return err
	})
}
