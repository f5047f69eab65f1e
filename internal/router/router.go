package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-manager/internal/handler"
	"github.com/iliyamo/restaurant-manager/internal/middleware"
)

// Handlers bundles the handlers wired by Register.
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Floor        *handler.FloorHandler
	Layout       *handler.LayoutHandler
	Reservations *handler.ReservationHandler
	Inventory    *handler.InventoryHandler
	Notices      *handler.NoticeHandler
}

// Register wires every route.  cache is the response cache middleware and
// runs after JWTAuth on the authenticated groups.
func Register(e *echo.Echo, h Handlers, jwtSecret string, cache echo.MiddlewareFunc) {
	RegisterRoutes(e, h.Health)
	RegisterAuth(e, h.Auth, jwtSecret)
	RegisterStaff(e, h, jwtSecret, cache)
	RegisterOwner(e, h, jwtSecret, cache)
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, health *handler.HealthHandler) {
	e.GET("/healthz", health.Health)
}

// RegisterAuth registers the token endpoints under /v1/auth and /v1/me.
// Logout runs without JWTAuth: it accepts either a refresh token in the body
// or a bearer token, which OptionalJWT resolves.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)              // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess) // access token only
	g.POST("/logout", a.Logout, middleware.OptionalJWT(jwtSecret))

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)

	// Same handler outside the auth group.
	e.POST("/v1/logout", a.Logout, middleware.OptionalJWT(jwtSecret))
}
