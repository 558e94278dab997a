// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azadnexus/backend/internal/core"
)

type memoryTokens struct {
	mu     sync.Mutex
	tokens map[string]*RefreshToken
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{tokens: map[string]*RefreshToken{}}
}

func (m *memoryTokens) Create(_ context.Context, token *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	token.CreatedAt = time.Now()
	cp := *token
	m.tokens[token.ID] = &cp
	return nil
}

func (m *memoryTokens) FindByHash(_ context.Context, hash string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memoryTokens) FindByID(_ context.Context, id string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, core.ErrNotFound
}

func (m *memoryTokens) MarkAsUsed(_ context.Context, id, replacedByID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok || t.IsUsed || t.RevokedAt != nil {
		return core.ErrNotFound
	}
	t.IsUsed = true
	t.ReplacedByID = &replacedByID
	return nil
}

func (m *memoryTokens) RevokeByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok || t.RevokedAt != nil {
		return core.ErrNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (m *memoryTokens) RevokeByFamilyID(_ context.Context, familyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, t := range m.tokens {
		if t.FamilyID == familyID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (m *memoryTokens) RevokeAllForUser(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	now := time.Now()
	for _, t := range m.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			n++
		}
	}
	return n, nil
}

func (m *memoryTokens) ListActiveForUser(_ context.Context, userID string) ([]RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []RefreshToken{}
	for _, t := range m.tokens {
		if t.UserID == userID && t.IsValidAt(time.Now()) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memoryTokens) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, t := range m.tokens {
		if t.ExpiresAt.Before(before) {
			delete(m.tokens, id)
			n++
		}
	}
	return n, nil
}

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*UserInfo
}

func (m *memoryUsers) GetByUsername(_ context.Context, username string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, core.ErrNotFound
}

func (m *memoryUsers) IncrementTokenVersion(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].TokenVersion++
	return nil
}

func (m *memoryUsers) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].PasswordHash = hash
	return nil
}

func (m *memoryUsers) setRole(id, role string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].Role = role
}

type authFixture struct {
	svc    *Service
	tokens *memoryTokens
	users  *memoryUsers
	redis  *miniredis.Miniredis
}

const testPassword = "long-grain-white-2026"

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	hash, err := core.HashPassword(testPassword)
	require.NoError(t, err)

	users := &memoryUsers{users: map[string]*UserInfo{
		"admin-1": {ID: "admin-1", Username: "owner", PasswordHash: hash, Role: "admin"},
		"user-1":  {ID: "user-1", Username: "clerk", PasswordHash: hash, Role: "user"},
	}}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	tokens := newMemoryTokens()
	svc := NewService(tokens, newTestJWT(t), users, rdb)

	return &authFixture{svc: svc, tokens: tokens, users: users, redis: mr}
}

func (f *authFixture) login(t *testing.T, username string) *AuthResponse {
	t.Helper()
	resp, err := f.svc.Login(context.Background(), LoginRequest{
		Username: username,
		Password: testPassword,
	}, "test-agent", "127.0.0.1")
	require.NoError(t, err)
	return resp
}

func TestLoginAndAdminCheck(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp := f.login(t, "  Owner ")
	assert.True(t, resp.User.IsAdmin)
	assert.Equal(t, "Bearer", resp.Tokens.TokenType)

	claims, err := f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	require.NoError(t, err)

	ok, err := f.svc.IsAdmin(ctx, claims)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, f.svc.AdminStatus(ctx, resp.Tokens.AccessToken))
}

func TestLoginFailuresLookIdentical(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, unknownErr := f.svc.Login(ctx, LoginRequest{Username: "ghost", Password: "whatever-pass"}, "", "")
	_, wrongErr := f.svc.Login(ctx, LoginRequest{Username: "owner", Password: "whatever-pass"}, "", "")

	unknown, ok := core.AsAppError(unknownErr)
	require.True(t, ok)
	wrong, ok := core.AsAppError(wrongErr)
	require.True(t, ok)

	assert.Equal(t, "INVALID_CREDENTIALS", unknown.Code)
	assert.Equal(t, unknown.Code, wrong.Code)
	assert.Equal(t, unknown.Message, wrong.Message)
	assert.Equal(t, unknown.StatusCode, wrong.StatusCode)
}

func TestNonAdminIsNotAdmin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp := f.login(t, "clerk")
	claims, err := f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	require.NoError(t, err)

	ok, err := f.svc.IsAdmin(ctx, claims)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, f.svc.AdminStatus(ctx, resp.Tokens.AccessToken))
	assert.False(t, f.svc.AdminStatus(ctx, ""))
}

func TestDemotionTakesEffectImmediately(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp := f.login(t, "owner")
	claims, err := f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	require.NoError(t, err)

	// Role flipped in storage while the token still says admin.
	f.users.setRole("admin-1", "user")

	ok, err := f.svc.IsAdmin(ctx, claims)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "admin", claims.Role)
}

func TestTokenVersionBumpRevokesAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp := f.login(t, "owner")
	require.NoError(t, f.users.IncrementTokenVersion(ctx, "admin-1"))

	_, err := f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp := f.login(t, "owner")
	claims, err := f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, claims))
	require.NoError(t, f.svc.Logout(ctx, claims))
	require.NoError(t, f.svc.Logout(ctx, nil))

	_, err = f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = f.svc.Refresh(ctx, resp.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestRefreshRotationAndReuse(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	first := f.login(t, "owner")

	second, err := f.svc.Refresh(ctx, first.Tokens.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.Tokens.RefreshToken, second.Tokens.RefreshToken)

	_, err = f.svc.Refresh(ctx, first.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrTokenReuse)

	// Reuse revokes the whole family, including the rotated token.
	_, err = f.svc.Refresh(ctx, second.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = f.svc.Refresh(ctx, "unknown", "", "")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestVerifyFailsClosedWhenRedisDown(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp := f.login(t, "owner")
	f.redis.Close()

	_, err := f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	assert.Error(t, err)
	assert.False(t, f.svc.AdminStatus(ctx, resp.Tokens.AccessToken))
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp := f.login(t, "owner")

	err := f.svc.ChangePassword(ctx, "admin-1", ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "a-brand-new-password",
	})
	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code)

	require.NoError(t, f.svc.ChangePassword(ctx, "admin-1", ChangePasswordRequest{
		CurrentPassword: testPassword,
		NewPassword:     "a-brand-new-password",
	}))

	_, err = f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	sessions, err := f.svc.GetActiveSessions(ctx, "admin-1", "")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRevokeSessionOfAnotherUserIsNotFound(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.login(t, "owner")
	sessions, err := f.svc.GetActiveSessions(ctx, "admin-1", "")
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	err = f.svc.RevokeSession(ctx, "user-1", sessions[0].ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, f.svc.RevokeSession(ctx, "admin-1", sessions[0].ID))
}
