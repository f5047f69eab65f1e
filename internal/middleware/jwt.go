package middleware // middleware contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-manager/internal/utils"
)

// bearer extracts the token from an Authorization header.
func bearer(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return raw, raw != ""
}

// JWTAuth validates a Bearer access token and stores its user id,
// organization id and role in the context (see UserID, OrgID and Role).
// Requests without a valid token are answered with 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxOrgID, claims.OrgID)
			c.Set(CtxRole, claims.Role)
			return next(c)
		}
	}
}

// OptionalJWT behaves like JWTAuth for valid tokens but lets requests
// without one, or with an invalid one, through anonymously.  Logout uses it
// to learn who is calling without requiring an access token.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw, ok := bearer(c); ok {
				if claims, err := utils.ParseAccessToken(secret, raw); err == nil {
					c.Set(CtxUserID, claims.UserID)
					c.Set(CtxOrgID, claims.OrgID)
					c.Set(CtxRole, claims.Role)
				}
			}
			return next(c)
		}
	}
}
