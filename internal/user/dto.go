// AngelaMos | 2026
// dto.go

package user

import (
	"strings"
	"time"
)

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64,username"`
	Password string `json:"password" validate:"required,min=12,max=128"`
	Role     string `json:"role"     validate:"omitempty,oneof=user admin"`
}

func (r *CreateUserRequest) Normalize() {
	r.Username = normalizeUsername(r.Username)
	if r.Role == "" {
		r.Role = RoleUser
	}
}

type UpdateUserRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=64,username"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=12,max=128"`
}

func (r *UpdateUserRequest) Normalize() {
	if r.Username != nil {
		u := normalizeUsername(*r.Username)
		r.Username = &u
	}
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
