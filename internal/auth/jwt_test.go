// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azadnexus/backend/internal/config"
	"github.com/azadnexus/backend/internal/core"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 7 * 24 * time.Hour,
		Issuer:             "azad-nexus",
		Audience:           "azad-nexus-admin",
	}
}

func newTestJWT(t *testing.T) *JWTManager {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	m, err := NewJWTManagerFromKey(key, testJWTConfig())
	require.NoError(t, err)
	return m
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestJWT(t)

	issued, err := m.CreateAccessToken(AccessTokenClaims{
		UserID:       "user-1",
		Role:         "admin",
		TokenVersion: 3,
		SessionID:    "sess-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.TokenID)

	claims, err := m.ParseAccessToken(context.Background(), issued.Token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, issued.TokenID, claims.TokenID)
	assert.WithinDuration(t, issued.ExpiresAt, claims.ExpiresAt, time.Second)
}

func TestParseAccessTokenExpired(t *testing.T) {
	m := newTestJWT(t)
	issued, err := m.CreateAccessToken(AccessTokenClaims{UserID: "u", Role: "admin"})
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(time.Hour) }

	_, err = m.ParseAccessToken(context.Background(), issued.Token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestParseAccessTokenRejectsForeignKey(t *testing.T) {
	issuer := newTestJWT(t)
	verifier := newTestJWT(t)

	issued, err := issuer.CreateAccessToken(AccessTokenClaims{UserID: "u", Role: "admin"})
	require.NoError(t, err)

	_, err = verifier.ParseAccessToken(context.Background(), issued.Token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	_, err = verifier.ParseAccessToken(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestGenerateKeyPairLoads(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")

	require.NoError(t, GenerateKeyPair(priv, pub))

	cfg := testJWTConfig()
	cfg.PrivateKeyPath = priv
	cfg.PublicKeyPath = pub

	m, err := NewJWTManager(cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, m.GetKeyID())
}

func TestJWKSHandler(t *testing.T) {
	m := newTestJWT(t)

	rec := httptest.NewRecorder()
	m.GetJWKSHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Keys []map[string]any `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Keys, 1)
	assert.Equal(t, "EC", body.Keys[0]["kty"])
	assert.Equal(t, m.GetKeyID(), body.Keys[0]["kid"])
	assert.NotContains(t, body.Keys[0], "d")
}

func TestCreateRefreshTokenKeepsFamily(t *testing.T) {
	m := newTestJWT(t)

	first, err := m.CreateRefreshToken("")
	require.NoError(t, err)
	assert.NotEmpty(t, first.FamilyID)
	assert.Equal(t, core.HashToken(first.Token), first.Hash)

	next, err := m.CreateRefreshToken(first.FamilyID)
	require.NoError(t, err)
	assert.Equal(t, first.FamilyID, next.FamilyID)
	assert.NotEqual(t, first.Token, next.Token)
}
