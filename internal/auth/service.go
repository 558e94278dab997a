// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"github.com/azadnexus/backend/internal/core"
	"github.com/azadnexus/backend/internal/middleware"
)

var ErrTokenReuse = errors.New("token reuse detected")

const (
	roleAdmin       = "admin"
	blacklistPrefix = "auth:blacklist:"
	expiredRetained = 24 * time.Hour
)

type UserInfo struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	TokenVersion int
}

type UserProvider interface {
	GetByUsername(ctx context.Context, username string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type Service struct {
	repo         Repository
	jwt          *JWTManager
	userProvider UserProvider
	redis        *redis.Client
	now          func() time.Time
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	userProvider UserProvider,
	redisClient *redis.Client,
) *Service {
	return &Service{
		repo:         repo,
		jwt:          jwt,
		userProvider: userProvider,
		redis:        redisClient,
		now:          time.Now,
	}
}

// Login returns the same InvalidCredentials error for an unknown username and
// a wrong password, and spends one argon2 derivation in both cases.
func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	req.Normalize()

	user, err := s.userProvider.GetByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}

	hash := ""
	if user != nil {
		hash = user.PasswordHash
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(req.Password, hash)
	if err != nil && user != nil {
		slog.Warn("stored password hash unreadable", "user_id", user.ID, "error", err)
		valid = false
	}

	if user == nil || !valid {
		core.AddSpanEvent(ctx, "auth.login_failed",
			attribute.String("ip", ipAddress))
		return nil, core.InvalidCredentialsError()
	}

	if newHash != "" {
		if err := s.userProvider.UpdatePassword(ctx, user.ID, newHash); err != nil {
			slog.Warn("password rehash failed", "user_id", user.ID, "error", err)
		}
	}

	return s.issueSession(ctx, user, userAgent, ipAddress, "", "")
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	stored, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if stored.IsUsed {
		s.revokeFamily(ctx, stored)
		return nil, ErrTokenReuse
	}

	if !stored.IsValidAt(s.now()) {
		if stored.IsRevoked() {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.userProvider.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return s.issueSession(ctx, user, userAgent, ipAddress, stored.FamilyID, stored.ID)
}

func (s *Service) revokeFamily(ctx context.Context, token *RefreshToken) {
	if err := s.repo.RevokeByFamilyID(ctx, token.FamilyID); err != nil {
		slog.Error("revoke token family failed",
			"user_id", token.UserID,
			"family_id", token.FamilyID,
			"error", err,
		)
		return
	}
	slog.Warn("refresh token reuse detected, family revoked",
		"user_id", token.UserID,
		"family_id", token.FamilyID,
	)
}

// Logout revokes the caller's session. Anonymous callers and already revoked
// sessions are a no-op so the call can be repeated safely.
func (s *Service) Logout(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) error {
	if claims == nil {
		return nil
	}

	if err := s.blacklist(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return err
	}

	if claims.SessionID == "" {
		return nil
	}

	err := s.repo.RevokeByID(ctx, claims.SessionID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if _, err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	if err := s.userProvider.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return nil
}

func (s *Service) blacklist(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return nil
	}

	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, blacklistPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

func (s *Service) isBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := s.redis.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return exists > 0, nil
}

// VerifyAccessToken is the middleware.TokenVerifier. Beyond the signature it
// rejects blacklisted tokens and tokens minted before the account's current
// token version. A Redis failure rejects the token.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.ParseAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.isBlacklisted(ctx, claims.TokenID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	if _, err := s.currentUser(ctx, claims); err != nil {
		return nil, err
	}

	return claims, nil
}

// IsAdmin reads the role as stored now. A role in the token that has since
// been revoked does not count.
func (s *Service) IsAdmin(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) (bool, error) {
	if claims == nil {
		return false, nil
	}

	user, err := s.currentUser(ctx, claims)
	if err != nil {
		return false, err
	}

	return user.Role == roleAdmin, nil
}

// AdminStatus answers for any caller. Anonymous or unverifiable callers are
// simply not admins.
func (s *Service) AdminStatus(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	claims, err := s.VerifyAccessToken(ctx, token)
	if err != nil {
		return false
	}

	ok, err := s.IsAdmin(ctx, claims)
	if err != nil {
		slog.Warn("admin status check failed", "user_id", claims.UserID, "error", err)
		return false
	}

	return ok
}

func (s *Service) currentUser(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) (*UserInfo, error) {
	user, err := s.userProvider.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if claims.TokenVersion < user.TokenVersion {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return user, nil
}

func (s *Service) GetActiveSessions(
	ctx context.Context,
	userID, currentSessionID string,
) ([]SessionInfo, error) {
	tokens, err := s.repo.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, SessionInfo{
			ID:        t.ID,
			UserAgent: t.UserAgent,
			IPAddress: t.IPAddress,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
			Current:   t.ID == currentSessionID,
		})
	}

	return sessions, nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	userID, sessionID string,
) error {
	token, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	// Another user's session is reported as missing rather than forbidden.
	if token.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrNotFound)
	}

	if err := s.repo.RevokeByID(ctx, sessionID); err != nil &&
		!errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID string,
	req ChangePasswordRequest,
) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	valid, err := core.VerifyPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil || !valid {
		return core.InvalidCredentialsError()
	}

	newHash, err := core.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userProvider.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return s.LogoutAll(ctx, userID)
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*UserResponse, error) {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// PurgeExpiredSessions drops refresh tokens that expired more than a day ago.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now().Add(-expiredRetained))
}

func (s *Service) issueSession(
	ctx context.Context,
	user *UserInfo,
	userAgent, ipAddress, familyID, previousID string,
) (*AuthResponse, error) {
	refreshData, err := s.jwt.CreateRefreshToken(familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	sessionID := uuid.New().String()

	if previousID != "" {
		if err := s.repo.MarkAsUsed(ctx, previousID, sessionID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				s.revokeFamily(ctx, &RefreshToken{UserID: user.ID, FamilyID: familyID})
				return nil, ErrTokenReuse
			}
			return nil, fmt.Errorf("rotate refresh token: %w", err)
		}
	}

	if err := s.repo.Create(ctx, &RefreshToken{
		ID:        sessionID,
		UserID:    user.ID,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	access, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID:       user.ID,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		SessionID:    sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	return &AuthResponse{
		User: toUserResponse(user),
		Tokens: TokenResponse{
			AccessToken:  access.Token,
			RefreshToken: refreshData.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(s.jwt.AccessTokenTTL() / time.Second),
			ExpiresAt:    access.ExpiresAt,
		},
	}, nil
}

func toUserResponse(user *UserInfo) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		IsAdmin:  user.Role == roleAdmin,
	}
}
