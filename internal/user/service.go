// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/azadnexus/backend/internal/auth"
	"github.com/azadnexus/backend/internal/core"
)

// ErrSelfDelete stops an admin from deleting the account they are using.
var ErrSelfDelete = fmt.Errorf("cannot delete own account: %w", core.ErrConflict)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByUsername(
	ctx context.Context,
	username string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByUsername(ctx, normalizeUsername(username))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) CreateUser(
	ctx context.Context,
	req CreateUserRequest,
) (*User, error) {
	req.Normalize()

	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		PasswordHash: hash,
		Role:         req.Role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateUser renames an account or resets its password. A password reset
// bumps token_version so existing sessions stop verifying.
func (s *Service) UpdateUser(
	ctx context.Context,
	id string,
	req UpdateUserRequest,
) (*User, error) {
	req.Normalize()

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = *req.Username
	}

	if req.Password != nil {
		hash, hashErr := core.HashPassword(*req.Password)
		if hashErr != nil {
			return nil, fmt.Errorf("hash password: %w", hashErr)
		}
		user.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if req.Password != nil {
		if err := s.repo.IncrementTokenVersion(ctx, id); err != nil {
			return nil, err
		}
	}

	return user, nil
}

// AssignRole grants or revokes admin. It is only reachable through the admin
// gate, and bootstrap goes through EnsureBootstrapAdmin instead.
func (s *Service) AssignRole(
	ctx context.Context,
	actorID, id, role string,
) (*User, error) {
	if role != RoleUser && role != RoleAdmin {
		return nil, fmt.Errorf(
			"assign role: invalid role %q: %w",
			role,
			core.ErrInvalidInput,
		)
	}

	user, err := s.repo.SetRole(ctx, id, role)
	if err != nil {
		return nil, err
	}

	slog.Info("role assigned",
		"actor_id", actorID,
		"user_id", id,
		"role", role,
	)

	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return ErrSelfDelete
	}

	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()
	return s.repo.List(ctx, params)
}

// EnsureBootstrapAdmin creates (or promotes) the configured account when no
// admin exists yet. With an admin already present it does nothing, so the
// configured password cannot be used to take over a running installation.
func (s *Service) EnsureBootstrapAdmin(
	ctx context.Context,
	username, password string,
) (bool, error) {
	username = normalizeUsername(username)
	if username == "" {
		return false, nil
	}

	admins, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return false, err
	}
	if admins > 0 {
		return false, nil
	}

	existing, err := s.repo.GetByUsername(ctx, username)
	switch {
	case err == nil:
		hash, hashErr := core.HashPassword(password)
		if hashErr != nil {
			return false, fmt.Errorf("hash password: %w", hashErr)
		}
		if err := s.repo.UpdatePassword(ctx, existing.ID, hash); err != nil {
			return false, err
		}
		if _, err := s.repo.SetRole(ctx, existing.ID, RoleAdmin); err != nil {
			return false, err
		}
	case errors.Is(err, core.ErrNotFound):
		if _, err := s.CreateUser(ctx, CreateUserRequest{
			Username: username,
			Password: password,
			Role:     RoleAdmin,
		}); err != nil {
			return false, err
		}
	default:
		return false, err
	}

	slog.Info("bootstrap admin ensured", "username", username)
	return true, nil
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		TokenVersion: u.TokenVersion,
	}
}

var _ auth.UserProvider = (*Service)(nil)
