package handler // handler defines http handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-manager/internal/middleware"
	"github.com/iliyamo/restaurant-manager/internal/service"
)

// dbTimeout bounds every request's database work.
const dbTimeout = 5 * time.Second

// publishTimeout bounds the broker round trip after a write has committed.
const publishTimeout = 3 * time.Second

// dbCtx derives the per-request database context.
func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// identity returns the caller's user and organization ids as set by JWTAuth.
func identity(c echo.Context) (userID, orgID uint64, ok bool) {
	uid, ok1 := middleware.UserID(c)
	org, ok2 := middleware.OrgID(c)
	return uid, org, ok1 && ok2
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func jsonError(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

func unauthorized(c echo.Context) error {
	return jsonError(c, http.StatusUnauthorized, "unauthorized")
}

// events publishes domain events after a write has committed.  Failures are
// logged by the publisher and never change the response.
type events struct {
	pub    service.Publisher
	logger *log.Logger
}

func (e events) publish(kind string, orgID uint64, payload any) {
	if e.pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := e.pub.Publish(ctx, kind, orgID, payload); err != nil {
		e.logger.Debug("event dropped", "type", kind, "err", err)
	}
}
