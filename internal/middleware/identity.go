package middleware

// identity.go holds the context keys JWTAuth fills and typed accessors for
// them, shared by middleware and handlers.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	CtxUserID = "user_id"
	CtxOrgID  = "organization_id"
	CtxRole   = "role"
)

// UserID returns the authenticated user's id.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxUserID).(uint64)
	return id, ok && id != 0
}

// OrgID returns the authenticated user's organization id.
func OrgID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxOrgID).(uint64)
	return id, ok && id != 0
}

// Role returns the authenticated user's role, or "" for anonymous requests.
func Role(c echo.Context) string {
	r, _ := c.Get(CtxRole).(string)
	return r
}

// currentUserID renders the user id for rate limit keys; "anon" when the
// request is not authenticated.
func currentUserID(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
