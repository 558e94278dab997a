// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/azadnexus/backend/internal/core"
)

const (
	UserIDKey contextKey = "user_id"
	ClaimsKey contextKey = "jwt_claims"
)

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*AccessTokenClaims, error)
}

// AdminChecker answers the admin question from server-side state. The role
// inside the token is never trusted on its own.
type AdminChecker interface {
	IsAdmin(ctx context.Context, claims *AccessTokenClaims) (bool, error)
}

type AccessTokenClaims struct {
	UserID       string
	Role         string
	TokenVersion int
	SessionID    string
	TokenID      string
	ExpiresAt    time.Time
}

func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing authorization token"),
				)
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

func OptionalAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := ExtractToken(r); token != "" {
				claims, err := verifier.VerifyAccessToken(r.Context(), token)
				if err == nil {
					r = r.WithContext(withClaims(r.Context(), claims))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin authenticates the caller (unless an earlier middleware already
// did) and then asks the checker on every request. Missing token, bad token,
// non-admin and checker failure all produce the same 401 body.
func RequireAdmin(
	verifier TokenVerifier,
	checker AdminChecker,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := LoggerFromContext(ctx)

			claims := GetClaims(ctx)
			if claims == nil {
				token := ExtractToken(r)
				if token == "" {
					denyAdmin(w)
					return
				}

				verified, err := verifier.VerifyAccessToken(ctx, token)
				if err != nil {
					logger.Info("admin access denied",
						"reason", "token rejected",
						"error", err,
						"path", r.URL.Path,
					)
					denyAdmin(w)
					return
				}
				claims = verified
				ctx = withClaims(ctx, claims)
			}

			ok, err := checker.IsAdmin(ctx, claims)
			if err != nil {
				logger.Warn("admin check failed",
					"user_id", claims.UserID,
					"error", err,
					"path", r.URL.Path,
				)
				denyAdmin(w)
				return
			}
			if !ok {
				logger.Info("admin access denied",
					"reason", "not admin",
					"user_id", claims.UserID,
					"path", r.URL.Path,
				)
				denyAdmin(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func denyAdmin(w http.ResponseWriter) {
	core.JSONError(w, core.UnauthorizedError(""))
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	default:
		core.JSONError(w, core.TokenInvalidError())
	}
}

func withClaims(ctx context.Context, claims *AccessTokenClaims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// WithClaims is the exported form used by tests and internal callers that
// already hold verified claims.
func WithClaims(ctx context.Context, claims *AccessTokenClaims) context.Context {
	return withClaims(ctx, claims)
}

func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	if claims, ok := ctx.Value(ClaimsKey).(*AccessTokenClaims); ok {
		return claims
	}
	return nil
}
