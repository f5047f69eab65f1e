package model

import (
	"time"

	"github.com/iliyamo/restaurant-manager/internal/layout"
)

// Hall is a named sub-area of the restaurant (main room, terrace, bar).
// Each hall has its own canvas; tables are placed on it in canvas units.
//
// Fields:
//
//	ID             – primary key identifier.
//	OrganizationID – owning organization.
//	Name           – unique hall name per organization.
//	Description    – optional description of the hall.
//	CanvasWidth    – width of the layout canvas.
//	CanvasHeight   – height of the layout canvas.
type Hall struct {
	ID             uint64    `json:"id"`                    // halls.id
	OrganizationID uint64    `json:"organization_id"`       // halls.organization_id
	Name           string    `json:"name"`                  // halls.name
	Description    *string   `json:"description,omitempty"` // halls.description (nullable)
	CanvasWidth    float64   `json:"canvas_width"`          // halls.canvas_width
	CanvasHeight   float64   `json:"canvas_height"`         // halls.canvas_height
	CreatedAt      time.Time `json:"created_at"`            // halls.created_at
	UpdatedAt      time.Time `json:"updated_at"`            // halls.updated_at
}

// Bounds returns the hall canvas as layout bounds.
func (h Hall) Bounds() layout.Bounds {
	return layout.Bounds{Width: h.CanvasWidth, Height: h.CanvasHeight}
}

// HallTables is one hall together with its tables, the shape the layout
// page loads on open.
type HallTables struct {
	Hall   Hall    `json:"hall"`
	Tables []Table `json:"tables"`
}
