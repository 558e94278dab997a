// AngelaMos | 2026
// handler_test.go

package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azadnexus/backend/internal/middleware"
)

func newAuthRouter(f *authFixture) http.Handler {
	r := chi.NewRouter()
	NewHandler(f.svc).RegisterRoutes(
		r,
		middleware.Authenticator(f.svc),
		middleware.OptionalAuth(f.svc),
		func(next http.Handler) http.Handler { return next },
	)
	return r
}

func send(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func adminStatus(t *testing.T, router http.Handler, token string) bool {
	t.Helper()
	rec := send(router, http.MethodGet, "/auth/admin-status", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data AdminStatusResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data.IsAdmin
}

func TestLoginLogoutOverHTTP(t *testing.T) {
	f := newAuthFixture(t)
	router := newAuthRouter(f)

	assert.False(t, adminStatus(t, router, ""))

	rec := send(router, http.MethodPost, "/auth/login", "",
		`{"username":"owner","password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login struct {
		Data AuthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	token := login.Data.Tokens.AccessToken
	require.NotEmpty(t, token)

	assert.True(t, adminStatus(t, router, token))
	assert.Equal(t, http.StatusOK, send(router, http.MethodGet, "/auth/me", token, "").Code)

	assert.Equal(t, http.StatusNoContent, send(router, http.MethodPost, "/auth/logout", token, "").Code)
	assert.Equal(t, http.StatusNoContent, send(router, http.MethodPost, "/auth/logout", token, "").Code)
	assert.Equal(t, http.StatusNoContent, send(router, http.MethodPost, "/auth/logout", "", "").Code)

	assert.False(t, adminStatus(t, router, token))
	assert.Equal(t, http.StatusUnauthorized, send(router, http.MethodGet, "/auth/me", token, "").Code)
}

func TestLoginFailureBodiesMatch(t *testing.T) {
	router := newAuthRouter(newAuthFixture(t))

	wrongPassword := send(router, http.MethodPost, "/auth/login", "",
		`{"username":"owner","password":"not-the-password"}`)
	unknownUser := send(router, http.MethodPost, "/auth/login", "",
		`{"username":"nobody","password":"not-the-password"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownUser.Code)
	assert.JSONEq(t, wrongPassword.Body.String(), unknownUser.Body.String())
	assert.Contains(t, wrongPassword.Body.String(), "INVALID_CREDENTIALS")
}

func TestLoginValidation(t *testing.T) {
	router := newAuthRouter(newAuthFixture(t))

	rec := send(router, http.MethodPost, "/auth/login", "", `{"username":"","password":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(router, http.MethodPost, "/auth/login", "", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
