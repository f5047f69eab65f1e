package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/restaurant-manager/internal/database"
	"github.com/iliyamo/restaurant-manager/internal/model"
)

// InventoryRepo stores stock items and their adjustment history.
type InventoryRepo struct {
	db *sql.DB
}

func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{db: db} }

const inventoryColumns = "id, organization_id, name, unit, quantity, min_quantity, created_at, updated_at"

func scanItem(row interface{ Scan(...any) error }) (model.InventoryItem, error) {
	var it model.InventoryItem
	err := row.Scan(&it.ID, &it.OrganizationID, &it.Name, &it.Unit, &it.Quantity, &it.MinQuantity, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

func (r *InventoryRepo) list(ctx context.Context, q string, args ...any) ([]model.InventoryItem, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.InventoryItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// List returns every item of the organization ordered by name.
func (r *InventoryRepo) List(ctx context.Context, orgID uint64) ([]model.InventoryItem, error) {
	return r.list(ctx, "SELECT "+inventoryColumns+" FROM inventory_items WHERE organization_id = ? ORDER BY name", orgID)
}

// ListLow returns items whose quantity is below min_quantity.
func (r *InventoryRepo) ListLow(ctx context.Context, orgID uint64) ([]model.InventoryItem, error) {
	return r.list(ctx, "SELECT "+inventoryColumns+
		" FROM inventory_items WHERE organization_id = ? AND quantity < min_quantity ORDER BY name", orgID)
}

// GetByIDAndOrg returns ErrInventoryItemNotFound when no row matches.
func (r *InventoryRepo) GetByIDAndOrg(ctx context.Context, id, orgID uint64) (model.InventoryItem, error) {
	it, err := scanItem(r.db.QueryRowContext(ctx,
		"SELECT "+inventoryColumns+" FROM inventory_items WHERE id = ? AND organization_id = ?", id, orgID))
	if err != nil {
		return model.InventoryItem{}, notFound(err, ErrInventoryItemNotFound)
	}
	return it, nil
}

// Create inserts it and reads the stored row back.
func (r *InventoryRepo) Create(ctx context.Context, it *model.InventoryItem) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO inventory_items (organization_id, name, unit, quantity, min_quantity) VALUES (?, ?, ?, ?, ?)",
		it.OrganizationID, it.Name, it.Unit, it.Quantity, it.MinQuantity)
	if err != nil {
		if database.IsDuplicateEntry(err) {
			return ErrInventoryNameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := r.GetByIDAndOrg(ctx, uint64(id), it.OrganizationID)
	if err != nil {
		return err
	}
	*it = got
	return nil
}

// Update writes name, unit, quantity and min_quantity.
func (r *InventoryRepo) Update(ctx context.Context, it *model.InventoryItem) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE inventory_items SET name = ?, unit = ?, quantity = ?, min_quantity = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND organization_id = ?`,
		it.Name, it.Unit, it.Quantity, it.MinQuantity, it.ID, it.OrganizationID)
	if err != nil {
		if database.IsDuplicateEntry(err) {
			return ErrInventoryNameExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByIDAndOrg(ctx, it.ID, it.OrganizationID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes an item and its movements.
func (r *InventoryRepo) Delete(ctx context.Context, id, orgID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM inventory_items WHERE id = ? AND organization_id = ?", id, orgID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInventoryItemNotFound
	}
	return nil
}

// Adjust adds delta to the item's quantity and records the movement, all in
// one transaction.  A result below zero fails with ErrInsufficientStock and
// changes nothing.  The item is returned as it was before and after.
func (r *InventoryRepo) Adjust(ctx context.Context, id, orgID, userID uint64, delta float64, reason *string) (before, after model.InventoryItem, err error) {
	err = inTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		before, err = scanItem(tx.QueryRowContext(ctx,
			"SELECT "+inventoryColumns+" FROM inventory_items WHERE id = ? AND organization_id = ? FOR UPDATE", id, orgID))
		if err != nil {
			return notFound(err, ErrInventoryItemNotFound)
		}
		if before.Quantity+delta < 0 {
			return ErrInsufficientStock
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE inventory_items SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", delta, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO inventory_movements (item_id, user_id, delta, reason) VALUES (?, ?, ?, ?)",
			id, userID, delta, nullString(reason)); err != nil {
			return err
		}
		after, err = scanItem(tx.QueryRowContext(ctx,
			"SELECT "+inventoryColumns+" FROM inventory_items WHERE id = ?", id))
		return err
	})
	return before, after, err
}

// Movements returns the most recent adjustments of an item, newest first.
func (r *InventoryRepo) Movements(ctx context.Context, id, orgID uint64, limit int) ([]model.InventoryMovement, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.item_id, m.user_id, m.delta, m.reason, m.created_at
		 FROM inventory_movements m
		 JOIN inventory_items i ON i.id = m.item_id
		 WHERE m.item_id = ? AND i.organization_id = ?
		 ORDER BY m.created_at DESC, m.id DESC LIMIT ?`, id, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.InventoryMovement{}
	for rows.Next() {
		var (
			m      model.InventoryMovement
			reason sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.ItemID, &m.UserID, &m.Delta, &reason, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Reason = stringPtr(reason)
		out = append(out, m)
	}
	return out, rows.Err()
}
