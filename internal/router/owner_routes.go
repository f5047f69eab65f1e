package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-manager/internal/middleware"
	"github.com/iliyamo/restaurant-manager/internal/model"
)

// RegisterOwner registers OWNER-scoped endpoints under /v1.  All routes
// require a valid JWT and the OWNER role.
func RegisterOwner(e *echo.Echo, h Handlers, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOwner),
		cache,
	)

	// ---- Halls ----
	g.POST("/halls", h.Floor.CreateHall)
	g.PUT("/halls/:id", h.Floor.UpdateHall)
	g.PATCH("/halls/:id", h.Floor.UpdateHall)
	g.DELETE("/halls/:id", h.Floor.DeleteHall)

	// ---- Tables ----
	g.POST("/halls/:id/tables", h.Floor.CreateTable)
	g.PUT("/tables/:id", h.Floor.UpdateTable)
	g.PATCH("/tables/:id", h.Floor.UpdateTable)
	g.POST("/tables/:id/move", h.Floor.MoveTable)
	g.DELETE("/tables/:id", h.Floor.DeleteTable)

	// ---- Layout editor ----
	g.POST("/halls/:id/layout/sessions", h.Layout.Open)
	g.GET("/layout/sessions/:sid", h.Layout.Get)
	g.POST("/layout/sessions/:sid/events", h.Layout.Events)
	g.POST("/layout/sessions/:sid/commit", h.Layout.Commit)
	g.DELETE("/layout/sessions/:sid", h.Layout.Discard)

	// ---- Reservations ----
	g.DELETE("/reservations/:id", h.Reservations.Delete)

	// ---- Inventory ----
	g.POST("/inventory", h.Inventory.Create)
	g.PUT("/inventory/:id", h.Inventory.Update)
	g.PATCH("/inventory/:id", h.Inventory.Update)
	g.DELETE("/inventory/:id", h.Inventory.Delete)

	// ---- Notices ----
	g.POST("/notices", h.Notices.Create)
	g.PUT("/notices/:id", h.Notices.Update)
	g.PATCH("/notices/:id", h.Notices.Update)
	g.DELETE("/notices/:id", h.Notices.Delete)
}
