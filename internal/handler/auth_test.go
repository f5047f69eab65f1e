package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-manager/internal/config"
	"github.com/iliyamo/restaurant-manager/internal/middleware"
	"github.com/iliyamo/restaurant-manager/internal/model"
	"github.com/iliyamo/restaurant-manager/internal/utils"
)

const authSecret = "auth-test-secret"

type authRig struct {
	e      *echo.Echo
	users  *fakeUsers
	tokens *fakeTokens
}

func newAuthRig() *authRig {
	cfg := config.Config{JWTSecret: authSecret, AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4}
	r := &authRig{e: echo.New(), users: newFakeUsers(), tokens: newFakeTokens()}
	h := NewAuthHandler(cfg, r.users, r.tokens, fakeOrgs{})
	g := r.e.Group("/v1/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/refresh-access", h.RefreshAccess)
	g.POST("/logout", h.Logout, middleware.OptionalJWT(authSecret))
	r.e.GET("/v1/me", h.Me, middleware.JWTAuth(authSecret))
	return r
}

func (r *authRig) register(t *testing.T, body string) authResp {
	t.Helper()
	rec := call(r.e, http.MethodPost, "/v1/auth/register", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[authResp](t, rec)
}

func TestRegisterOwnerCreatesOrganization(t *testing.T) {
	r := newAuthRig()

	resp := r.register(t, `{"email":" Chef@Example.com ","password":"s3cretpass","organization_name":"Trattoria"}`)

	assert.Equal(t, "chef@example.com", resp.User.Email)
	assert.Equal(t, model.RoleOwner, resp.User.Role)
	assert.NotZero(t, resp.User.OrganizationID)
	claims, err := utils.ParseAccessToken(authSecret, resp.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, utils.Claims{UserID: resp.User.ID, OrgID: resp.User.OrganizationID, Role: model.RoleOwner}, claims)
	assert.Contains(t, r.tokens.live, utils.HashRefreshRaw(resp.Refresh.Token))
}

func TestRegisterStaffJoinsOrganization(t *testing.T) {
	r := newAuthRig()
	boss := r.register(t, `{"email":"owner@example.com","password":"s3cretpass","organization_name":"Trattoria"}`)

	body := `{"email":"waiter@example.com","password":"s3cretpass","role":"staff","organization_id":` +
		jsonUint(boss.User.OrganizationID) + `}`
	staff := r.register(t, body)

	assert.Equal(t, model.RoleStaff, staff.User.Role)
	assert.Equal(t, boss.User.OrganizationID, staff.User.OrganizationID)
}

func jsonUint(v uint64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestRegisterRejects(t *testing.T) {
	r := newAuthRig()
	r.register(t, `{"email":"taken@example.com","password":"s3cretpass","organization_name":"A"}`)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing password", `{"email":"a@example.com","organization_name":"A"}`, http.StatusBadRequest},
		{"short password", `{"email":"a@example.com","password":"short","organization_name":"A"}`, http.StatusBadRequest},
		{"owner without organization", `{"email":"a@example.com","password":"s3cretpass"}`, http.StatusBadRequest},
		{"staff without organization", `{"email":"a@example.com","password":"s3cretpass","role":"STAFF"}`, http.StatusBadRequest},
		{"staff of unknown organization", `{"email":"a@example.com","password":"s3cretpass","role":"STAFF","organization_id":404}`, http.StatusNotFound},
		{"unknown role", `{"email":"a@example.com","password":"s3cretpass","role":"CUSTOMER"}`, http.StatusBadRequest},
		{"duplicate email", `{"email":"taken@example.com","password":"s3cretpass","organization_name":"B"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(r.e, http.MethodPost, "/v1/auth/register", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestLogin(t *testing.T) {
	r := newAuthRig()
	r.register(t, `{"email":"chef@example.com","password":"s3cretpass","organization_name":"Trattoria"}`)

	rec := call(r.e, http.MethodPost, "/v1/auth/login", `{"email":"CHEF@example.com","password":"s3cretpass"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode[authResp](t, rec).Access.Token)

	assert.Equal(t, http.StatusUnauthorized, call(r.e, http.MethodPost, "/v1/auth/login", `{"email":"chef@example.com","password":"wrongpass"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, call(r.e, http.MethodPost, "/v1/auth/login", `{"email":"ghost@example.com","password":"s3cretpass"}`).Code)
	assert.Equal(t, http.StatusBadRequest, call(r.e, http.MethodPost, "/v1/auth/login", `{}`).Code)

	u := r.users.byEmail["chef@example.com"]
	u.IsActive = false
	r.users.byEmail["chef@example.com"] = u
	assert.Equal(t, http.StatusUnauthorized, call(r.e, http.MethodPost, "/v1/auth/login", `{"email":"chef@example.com","password":"s3cretpass"}`).Code)
}

func TestRefreshRotatesOnce(t *testing.T) {
	r := newAuthRig()
	first := r.register(t, `{"email":"chef@example.com","password":"s3cretpass","organization_name":"Trattoria"}`)
	body := `{"refresh_token":"` + first.Refresh.Token + `"}`

	rec := call(r.e, http.MethodPost, "/v1/auth/refresh", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := decode[authResp](t, rec)
	assert.NotEqual(t, first.Refresh.Token, second.Refresh.Token)

	assert.Equal(t, http.StatusUnauthorized, call(r.e, http.MethodPost, "/v1/auth/refresh", body).Code, "old token is spent")
	assert.Equal(t, http.StatusBadRequest, call(r.e, http.MethodPost, "/v1/auth/refresh", `{}`).Code)

	rec = call(r.e, http.MethodPost, "/v1/auth/refresh-access", `{"refresh_token":"`+second.Refresh.Token+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, r.tokens.live, utils.HashRefreshRaw(second.Refresh.Token), "refresh-access does not rotate")
}

func TestLogout(t *testing.T) {
	r := newAuthRig()
	a := r.register(t, `{"email":"chef@example.com","password":"s3cretpass","organization_name":"Trattoria"}`)

	rec := call(r.e, http.MethodPost, "/v1/auth/logout", `{"refresh_token":"`+a.Refresh.Token+`"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotContains(t, r.tokens.live, utils.HashRefreshRaw(a.Refresh.Token))

	rec = call(r.e, http.MethodPost, "/v1/auth/logout", `{"refresh_token":"`+a.Refresh.Token+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, http.StatusBadRequest, call(r.e, http.MethodPost, "/v1/auth/logout", "").Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+a.Access.Token)
	out := httptest.NewRecorder()
	r.e.ServeHTTP(out, req)
	assert.Equal(t, http.StatusNoContent, out.Code)
	assert.Equal(t, []uint64{a.User.ID}, r.tokens.revokedAll)
}

func TestMe(t *testing.T) {
	r := newAuthRig()
	a := r.register(t, `{"email":"chef@example.com","password":"s3cretpass","organization_name":"Trattoria"}`)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+a.Access.Token)
	rec := httptest.NewRecorder()
	r.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[struct {
		User         model.User         `json:"user"`
		Organization model.Organization `json:"organization"`
	}](t, rec)
	assert.Equal(t, "chef@example.com", body.User.Email)
	assert.Equal(t, "Trattoria", body.Organization.Name)
	assert.NotContains(t, rec.Body.String(), "password")
}
