package model

import "time"

// InventoryItem is one stock line (flour, olive oil, napkins).  Quantity and
// MinQuantity are in Unit.
type InventoryItem struct {
	ID             uint64    `json:"id"`
	OrganizationID uint64    `json:"organization_id"`
	Name           string    `json:"name"`
	Unit           string    `json:"unit"`
	Quantity       float64   `json:"quantity"`
	MinQuantity    float64   `json:"min_quantity"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Low reports whether the item is below its reorder threshold.
func (i InventoryItem) Low() bool { return i.Quantity < i.MinQuantity }

// InventoryMovement records one stock adjustment.
type InventoryMovement struct {
	ID        uint64    `json:"id"`
	ItemID    uint64    `json:"item_id"`
	UserID    uint64    `json:"user_id"`
	Delta     float64   `json:"delta"`
	Reason    *string   `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
