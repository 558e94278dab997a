// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azadnexus/backend/internal/core"
)

type memoryRepo struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMemoryRepo(users ...*User) *memoryRepo {
	m := &memoryRepo{users: map[string]*User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memoryRepo) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username && !existing.IsDeleted() {
			return core.ErrDuplicateKey
		}
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memoryRepo) get(id string) (*User, error) {
	u, ok := m.users[id]
	if !ok || u.IsDeleted() {
		return nil, core.ErrNotFound
	}
	return u, nil
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.get(id)
	if err != nil {
		return nil, err
	}
	cp := *u
	return &cp, nil
}

func (m *memoryRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username && !u.IsDeleted() {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memoryRepo) Update(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.get(user.ID)
	if err != nil {
		return err
	}
	u.Username = user.Username
	u.PasswordHash = user.PasswordHash
	return nil
}

func (m *memoryRepo) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.get(id)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (m *memoryRepo) IncrementTokenVersion(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.get(id)
	if err != nil {
		return err
	}
	u.TokenVersion++
	return nil
}

func (m *memoryRepo) admins() int {
	n := 0
	for _, u := range m.users {
		if u.IsAdmin() && !u.IsDeleted() {
			n++
		}
	}
	return n
}

func (m *memoryRepo) SetRole(_ context.Context, id, role string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.get(id)
	if err != nil {
		return nil, err
	}
	if u.IsAdmin() && role != RoleAdmin && m.admins() <= 1 {
		return nil, ErrLastAdmin
	}
	if u.Role != role {
		u.Role = role
		u.TokenVersion++
	}
	cp := *u
	return &cp, nil
}

func (m *memoryRepo) SoftDelete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.get(id)
	if err != nil {
		return err
	}
	if u.IsAdmin() && m.admins() <= 1 {
		return ErrLastAdmin
	}
	now := time.Now()
	u.DeletedAt = &now
	return nil
}

func (m *memoryRepo) List(_ context.Context, p ListUsersParams) ([]User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []User{}
	for _, u := range m.users {
		if !u.IsDeleted() {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (m *memoryRepo) CountAdmins(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.admins(), nil
}

func TestEnsureBootstrapAdminCreatesOnce(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.EnsureBootstrapAdmin(ctx, " Owner ", "bootstrap-password-1")
	require.NoError(t, err)
	assert.True(t, created)

	u, err := repo.GetByUsername(ctx, "owner")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	ok, err := core.VerifyPassword("bootstrap-password-1", u.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	created, err = svc.EnsureBootstrapAdmin(ctx, "other", "bootstrap-password-2")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestEnsureBootstrapAdminPromotesExisting(t *testing.T) {
	repo := newMemoryRepo(&User{ID: "u1", Username: "owner", Role: RoleUser})
	svc := NewService(repo)

	created, err := svc.EnsureBootstrapAdmin(context.Background(), "owner", "bootstrap-password-1")
	require.NoError(t, err)
	assert.True(t, created)

	u, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, u.Role)
	assert.Equal(t, 1, u.TokenVersion)
}

func TestEnsureBootstrapAdminSkipsWhenUnset(t *testing.T) {
	created, err := NewService(newMemoryRepo()).EnsureBootstrapAdmin(context.Background(), "", "")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestAssignRole(t *testing.T) {
	repo := newMemoryRepo(
		&User{ID: "a1", Username: "owner", Role: RoleAdmin},
		&User{ID: "u1", Username: "clerk", Role: RoleUser},
	)
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.AssignRole(ctx, "a1", "a1", RoleUser)
	assert.ErrorIs(t, err, ErrLastAdmin)

	u, err := svc.AssignRole(ctx, "a1", "u1", RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, u.Role)
	assert.Equal(t, 1, u.TokenVersion)

	u, err = svc.AssignRole(ctx, "u1", "a1", RoleUser)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, u.Role)

	_, err = svc.AssignRole(ctx, "a1", "u1", "superuser")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.AssignRole(ctx, "a1", "missing", RoleAdmin)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	repo := newMemoryRepo(
		&User{ID: "a1", Username: "owner", Role: RoleAdmin},
		&User{ID: "u1", Username: "clerk", Role: RoleUser},
	)
	svc := NewService(repo)
	ctx := context.Background()

	assert.ErrorIs(t, svc.DeleteUser(ctx, "a1", "a1"), ErrSelfDelete)
	require.NoError(t, svc.DeleteUser(ctx, "a1", "u1"))
	assert.ErrorIs(t, svc.DeleteUser(ctx, "a1", "u1"), core.ErrNotFound)
}

func TestUpdateUserPasswordBumpsTokenVersion(t *testing.T) {
	repo := newMemoryRepo(&User{ID: "u1", Username: "clerk", Role: RoleUser})
	svc := NewService(repo)

	pw := "a-fresh-password-99"
	name := " Clerk.Two "
	u, err := svc.UpdateUser(context.Background(), "u1", UpdateUserRequest{
		Username: &name,
		Password: &pw,
	})
	require.NoError(t, err)
	assert.Equal(t, "clerk.two", u.Username)

	stored, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TokenVersion)
}

func TestCreateUserRequestValidation(t *testing.T) {
	v := core.NewValidator()

	req := CreateUserRequest{Username: "bad name!", Password: "short"}
	req.Normalize()
	err := v.Struct(req)
	require.Error(t, err)

	details := core.ValidationDetails(err)
	assert.Contains(t, details, "username")
	assert.Contains(t, details, "password")

	ok := CreateUserRequest{Username: "Sales.Desk", Password: "long-enough-password"}
	ok.Normalize()
	assert.NoError(t, v.Struct(ok))
	assert.Equal(t, "sales.desk", ok.Username)
	assert.Equal(t, RoleUser, ok.Role)
}
