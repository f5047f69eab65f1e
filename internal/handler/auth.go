package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-manager/internal/config"
	"github.com/iliyamo/restaurant-manager/internal/middleware"
	"github.com/iliyamo/restaurant-manager/internal/model"
	"github.com/iliyamo/restaurant-manager/internal/repository"
	"github.com/iliyamo/restaurant-manager/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  userStore
	Tokens tokenStore
	Orgs   organizationStore
}

func NewAuthHandler(cfg config.Config, u userStore, t tokenStore, o organizationStore) *AuthHandler {
	if u == nil || t == nil || o == nil {
		panic("nil dependency passed to NewAuthHandler")
	}
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Orgs: o}
}

// ----- DTOs -----

type registerReq struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	Role             string `json:"role"`              // OWNER | STAFF
	OrganizationName string `json:"organization_name"` // OWNER only
	OrganizationID   uint64 `json:"organization_id"`   // STAFF only
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID             uint64 `json:"id"`
	OrganizationID uint64 `json:"organization_id"`
	Email          string `json:"email"`
	Role           string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// issue signs an access token, stores a fresh refresh token and builds the
// response body.
func (h *AuthHandler) issue(ctx context.Context, u userPart) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, utils.Claims{UserID: u.ID, OrgID: u.OrganizationID, Role: u.Role}, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}

// Register creates an OWNER together with a new organization, or a STAFF
// member of an existing one, and returns tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return jsonError(c, http.StatusBadRequest, "email/password required")
	}
	if err := utils.CheckPassword(req.Password); err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role == "" {
		role = model.RoleOwner
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	var (
		uid, orgID uint64
		err        error
	)
	switch role {
	case model.RoleOwner:
		name := strings.TrimSpace(req.OrganizationName)
		if name == "" {
			return jsonError(c, http.StatusBadRequest, "organization_name required")
		}
		uid, orgID, err = h.Users.RegisterOwner(ctx, name, req.Email, req.Password, h.Cfg.BcryptCost)
	case model.RoleStaff:
		if req.OrganizationID == 0 {
			return jsonError(c, http.StatusBadRequest, "organization_id required")
		}
		orgID = req.OrganizationID
		uid, err = h.Users.Create(ctx, orgID, req.Email, req.Password, role, h.Cfg.BcryptCost)
	default:
		return jsonError(c, http.StatusBadRequest, "role must be OWNER or STAFF")
	}
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return jsonError(c, http.StatusConflict, "email already exists")
		case errors.Is(err, repository.ErrOrganizationNotFound):
			return jsonError(c, http.StatusNotFound, "organization not found")
		}
		return jsonError(c, http.StatusInternalServerError, "create user failed")
	}

	resp, err := h.issue(ctx, userPart{ID: uid, OrganizationID: orgID, Email: req.Email, Role: role})
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "issue tokens failed")
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return jsonError(c, http.StatusBadRequest, "email/password required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return jsonError(c, http.StatusUnauthorized, "invalid credentials")
		}
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return jsonError(c, http.StatusUnauthorized, "invalid credentials")
	}

	resp, err := h.issue(ctx, userPart{ID: u.ID, OrganizationID: u.OrganizationID, Email: u.Email, Role: u.Role})
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "issue tokens failed")
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh exchanges a refresh token for a new pair.  The old token is
// revoked in the same transaction that stores the new one.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return jsonError(c, http.StatusBadRequest, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := dbCtx(c)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, "invalid refresh")
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil || !u.IsActive {
		return jsonError(c, http.StatusUnauthorized, "invalid refresh")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, utils.Claims{UserID: u.ID, OrgID: u.OrganizationID, Role: u.Role}, h.Cfg.AccessTTLMin)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "issue access failed")
	}
	newRef, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "issue refresh failed")
	}
	if err := h.Tokens.RotateRefresh(ctx, userID, hash, utils.HashRefreshRaw(newRef.Raw), newRef.Exp); err != nil {
		if errors.Is(err, repository.ErrRefreshInvalid) {
			return jsonError(c, http.StatusUnauthorized, "invalid refresh")
		}
		return jsonError(c, http.StatusInternalServerError, "save refresh failed")
	}

	return c.JSON(http.StatusOK, authResp{
		User:    userPart{ID: u.ID, OrganizationID: u.OrganizationID, Email: u.Email, Role: u.Role},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: newRef.Raw, Expires: newRef.Exp},
	})
}

// RefreshAccess returns a new access token without rotating the refresh
// token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return jsonError(c, http.StatusBadRequest, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := dbCtx(c)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, "invalid refresh")
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return jsonError(c, http.StatusUnauthorized, "invalid refresh")
		}
		return jsonError(c, http.StatusInternalServerError, "load user failed")
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, utils.Claims{UserID: u.ID, OrgID: u.OrganizationID, Role: u.Role}, h.Cfg.AccessTTLMin)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "issue access failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes one refresh token given in the body, or every refresh token
// of the caller when only a bearer token is sent.  The route is registered
// without JWTAuth; OptionalJWT supplies the identity when there is one.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)
	uid, hasBearer := middleware.UserID(c)

	ctx, cancel := dbCtx(c)
	defer cancel()

	switch {
	case refreshToken != "":
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return jsonError(c, http.StatusUnauthorized, "invalid refresh token")
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return jsonError(c, http.StatusInternalServerError, "logout failed")
		}
		return c.NoContent(http.StatusNoContent)
	case hasBearer:
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return jsonError(c, http.StatusInternalServerError, "logout failed")
		}
		return c.NoContent(http.StatusNoContent)
	}
	return jsonError(c, http.StatusBadRequest, "provide Authorization header or refresh_token")
}

// Me returns the caller's account and organization.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return unauthorized(c)
		}
		return jsonError(c, http.StatusInternalServerError, "load user failed")
	}
	org, err := h.Orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, repository.ErrOrganizationNotFound) {
			return unauthorized(c)
		}
		return jsonError(c, http.StatusInternalServerError, "load organization failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":         u,
		"organization": org,
	})
}
