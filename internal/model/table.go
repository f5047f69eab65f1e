package model

import (
	"time"

	"github.com/iliyamo/restaurant-manager/internal/layout"
)

// Table is a dining table placed on a hall canvas.  PosX and PosY are the
// top-left corner; the footprint follows from Capacity and IsVertical.
type Table struct {
	ID          uint64    `json:"id"`           // dining_tables.id
	HallID      uint64    `json:"hall_id"`      // dining_tables.hall_id
	TableNumber string    `json:"table_number"` // dining_tables.table_number
	Capacity    int       `json:"capacity"`     // dining_tables.capacity
	PosX        float64   `json:"pos_x"`        // dining_tables.pos_x
	PosY        float64   `json:"pos_y"`        // dining_tables.pos_y
	IsVertical  bool      `json:"is_vertical"`  // dining_tables.is_vertical
	CreatedAt   time.Time `json:"created_at"`   // dining_tables.created_at
	UpdatedAt   time.Time `json:"updated_at"`   // dining_tables.updated_at
}

// Layout converts the row into the placement engine's table.
func (t Table) Layout() layout.Table {
	return layout.Table{
		ID:          t.ID,
		TableNumber: t.TableNumber,
		Capacity:    t.Capacity,
		Position:    layout.Point{X: t.PosX, Y: t.PosY},
		IsVertical:  t.IsVertical,
	}
}

// LayoutTables converts a slice of rows.
func LayoutTables(ts []Table) []layout.Table {
	out := make([]layout.Table, len(ts))
	for i, t := range ts {
		out[i] = t.Layout()
	}
	return out
}

// TablePosition is a committed position for one table.
type TablePosition struct {
	ID   uint64  `json:"id"`
	PosX float64 `json:"pos_x"`
	PosY float64 `json:"pos_y"`
}

// PositionsOf extracts the positions of placement engine tables.
func PositionsOf(ts []layout.Table) []TablePosition {
	out := make([]TablePosition, len(ts))
	for i, t := range ts {
		out[i] = TablePosition{ID: t.ID, PosX: t.Position.X, PosY: t.Position.Y}
	}
	return out
}
