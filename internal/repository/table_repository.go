package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/restaurant-manager/internal/database"
	"github.com/iliyamo/restaurant-manager/internal/model"
)

// TableRepo persists dining tables.  Tables have no organization column of
// their own; ownership is checked through the parent hall.
type TableRepo struct {
	db *sql.DB
}

func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// DB exposes the handle so callers can run several repository calls in one
// transaction.
func (r *TableRepo) DB() *sql.DB { return r.db }

const tableColumns = "t.id, t.hall_id, t.table_number, t.capacity, t.pos_x, t.pos_y, t.is_vertical, t.created_at, t.updated_at"

func scanTable(row interface{ Scan(...any) error }, t *model.Table) error {
	return row.Scan(&t.ID, &t.HallID, &t.TableNumber, &t.Capacity, &t.PosX, &t.PosY, &t.IsVertical, &t.CreatedAt, &t.UpdatedAt)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// listTablesByHall returns the hall's tables in insertion order, which is
// also their drawing order on the canvas.
func listTablesByHall(ctx context.Context, db queryer, hallID uint64, forUpdate bool) ([]model.Table, error) {
	q := "SELECT " + tableColumns + " FROM dining_tables t WHERE t.hall_id = ? ORDER BY t.id"
	if forUpdate {
		q += " FOR UPDATE"
	}
	rows, err := db.QueryContext(ctx, q, hallID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Table{}
	for rows.Next() {
		var t model.Table
		if err := scanTable(rows, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListByHall returns the tables of a hall that belongs to orgID.
func (r *TableRepo) ListByHall(ctx context.Context, hallID, orgID uint64) ([]model.Table, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM halls WHERE id = ? AND organization_id = ?", hallID, orgID).Scan(&one)
	if err != nil {
		return nil, notFound(err, ErrHallNotFound)
	}
	return listTablesByHall(ctx, r.db, hallID, false)
}

// ListGrouped returns every hall of the organization with its tables.  Halls
// without tables are included with an empty list.
func (r *TableRepo) ListGrouped(ctx context.Context, orgID uint64) ([]model.HallTables, error) {
	q := "SELECT " + hallColumns + " FROM halls WHERE organization_id = ? ORDER BY name, id"
	rows, err := r.db.QueryContext(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	var groups []model.HallTables
	index := map[uint64]int{}
	for rows.Next() {
		h, err := scanHall(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[h.ID] = len(groups)
		groups = append(groups, model.HallTables{Hall: h, Tables: []model.Table{}})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return []model.HallTables{}, nil
	}

	qt := "SELECT " + tableColumns + ` FROM dining_tables t
	       JOIN halls h ON h.id = t.hall_id
	       WHERE h.organization_id = ? ORDER BY t.hall_id, t.id`
	trows, err := r.db.QueryContext(ctx, qt, orgID)
	if err != nil {
		return nil, err
	}
	defer trows.Close()
	for trows.Next() {
		var t model.Table
		if err := scanTable(trows, &t); err != nil {
			return nil, err
		}
		if i, ok := index[t.HallID]; ok {
			groups[i].Tables = append(groups[i].Tables, t)
		}
	}
	return groups, trows.Err()
}

// GetByIDAndOrg returns a table whose hall belongs to orgID.
func (r *TableRepo) GetByIDAndOrg(ctx context.Context, id, orgID uint64) (model.Table, error) {
	q := "SELECT " + tableColumns + ` FROM dining_tables t
	      JOIN halls h ON h.id = t.hall_id
	      WHERE t.id = ? AND h.organization_id = ?`
	var t model.Table
	if err := scanTable(r.db.QueryRowContext(ctx, q, id, orgID), &t); err != nil {
		return model.Table{}, notFound(err, ErrTableNotFound)
	}
	return t, nil
}

// Create inserts t and reads the stored row back into it.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	const q = `INSERT INTO dining_tables (hall_id, table_number, capacity, pos_x, pos_y, is_vertical)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.HallID, t.TableNumber, t.Capacity, t.PosX, t.PosY, t.IsVertical)
	if err != nil {
		if database.IsDuplicateEntry(err) {
			return ErrTableNumberExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	q2 := "SELECT " + tableColumns + " FROM dining_tables t WHERE t.id = ?"
	return scanTable(r.db.QueryRowContext(ctx, q2, id), t)
}

// Update writes every mutable column of t.  The caller has already checked
// that the table belongs to its organization.
func (r *TableRepo) Update(ctx context.Context, t *model.Table) error {
	const q = `UPDATE dining_tables
	           SET table_number = ?, capacity = ?, pos_x = ?, pos_y = ?, is_vertical = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, t.TableNumber, t.Capacity, t.PosX, t.PosY, t.IsVertical, t.ID)
	if err != nil {
		if database.IsDuplicateEntry(err) {
			return ErrTableNumberExists
		}
		return err
	}
	return nil
}

// Delete removes a table whose hall belongs to orgID.  Its reservations are
// removed by cascade.
func (r *TableRepo) Delete(ctx context.Context, id, orgID uint64) error {
	const q = `DELETE t FROM dining_tables t
	           JOIN halls h ON h.id = t.hall_id
	           WHERE t.id = ? AND h.organization_id = ?`
	res, err := r.db.ExecContext(ctx, q, id, orgID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	return nil
}

// SavePositions commits a whole layout for one hall in a single
// transaction.  Positions for tables outside the hall are rejected with
// ErrTableNotFound and nothing is written.
func (r *TableRepo) SavePositions(ctx context.Context, hallID uint64, positions []model.TablePosition) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		return updatePositionsTx(ctx, tx, hallID, positions)
	})
}

// updatePositionsTx writes all positions with one UPDATE ... CASE statement
// after checking that every id belongs to the hall.
func updatePositionsTx(ctx context.Context, tx *sql.Tx, hallID uint64, positions []model.TablePosition) error {
	if len(positions) == 0 {
		return nil
	}
	countQ := "SELECT COUNT(*) FROM dining_tables WHERE hall_id = ? AND id IN (" + placeholders(len(positions)) + ") FOR UPDATE"
	countArgs := make([]any, 0, len(positions)+1)
	countArgs = append(countArgs, hallID)
	for _, p := range positions {
		countArgs = append(countArgs, p.ID)
	}
	var n int
	if err := tx.QueryRowContext(ctx, countQ, countArgs...).Scan(&n); err != nil {
		return err
	}
	if n != len(positions) {
		return fmt.Errorf("%w: %d of %d tables belong to hall %d", ErrTableNotFound, n, len(positions), hallID)
	}
	query, args := positionsUpdate(hallID, positions)
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// positionsUpdate builds
//
//	UPDATE dining_tables SET pos_x = CASE id WHEN ? THEN ? ... END,
//	pos_y = CASE id WHEN ? THEN ? ... END WHERE hall_id = ? AND id IN (...)
func positionsUpdate(hallID uint64, positions []model.TablePosition) (string, []any) {
	var b strings.Builder
	args := make([]any, 0, len(positions)*5+1)
	b.WriteString("UPDATE dining_tables SET pos_x = CASE id")
	for _, p := range positions {
		b.WriteString(" WHEN ? THEN ?")
		args = append(args, p.ID, p.PosX)
	}
	b.WriteString(" END, pos_y = CASE id")
	for _, p := range positions {
		b.WriteString(" WHEN ? THEN ?")
		args = append(args, p.ID, p.PosY)
	}
	b.WriteString(" END, updated_at = CURRENT_TIMESTAMP WHERE hall_id = ? AND id IN (")
	b.WriteString(placeholders(len(positions)))
	b.WriteString(")")
	args = append(args, hallID)
	for _, p := range positions {
		args = append(args, p.ID)
	}
	return b.String(), args
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
