package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-manager/internal/middleware"
	"github.com/iliyamo/restaurant-manager/internal/model"
)

// RegisterStaff registers the endpoints every member of an organization may
// use: reading the floor plan, taking reservations, adjusting stock and
// reading notices.
func RegisterStaff(e *echo.Echo, h Handlers, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOwner, model.RoleStaff),
		cache,
	)

	// ---- Floor plan ----
	g.GET("/halls", h.Floor.ListHalls)
	g.GET("/halls/:id", h.Floor.GetHall)
	g.GET("/halls/:id/tables", h.Floor.ListTables)
	g.GET("/tables/grouped", h.Floor.GroupedTables)

	// ---- Reservations ----
	g.POST("/reservations", h.Reservations.Create)
	g.GET("/reservations", h.Reservations.List)
	g.GET("/reservations/:id", h.Reservations.Get)
	g.PATCH("/reservations/:id/status", h.Reservations.UpdateStatus)

	// ---- Inventory ----
	g.GET("/inventory", h.Inventory.List)
	g.GET("/inventory/low-stock", h.Inventory.LowStock)
	g.GET("/inventory/:id", h.Inventory.Get)
	g.GET("/inventory/:id/movements", h.Inventory.Movements)
	g.POST("/inventory/:id/adjust", h.Inventory.Adjust)

	// ---- Notices ----
	g.GET("/notices", h.Notices.List)
	g.GET("/notices/:id", h.Notices.Get)
}
