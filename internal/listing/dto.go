// AngelaMos | 2026
// dto.go

package listing

import (
	"strings"
	"time"
)

type ListingRequest struct {
	Name        string `json:"name"        validate:"required,min=1,max=150"`
	Description string `json:"description" validate:"required,min=1,max=2000"`
	Details     string `json:"details"     validate:"max=10000"`
}

func (r *ListingRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.Details = strings.TrimSpace(r.Details)
}

func (r *ListingRequest) ToListing() *Listing {
	return &Listing{
		Name:        r.Name,
		Description: r.Description,
		Details:     r.Details,
	}
}

type ListingResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Details     string    `json:"details"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToResponse(l *Listing) ListingResponse {
	return ListingResponse{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		Details:     l.Details,
		CreatedAt:   l.CreatedAt.UTC(),
		UpdatedAt:   l.UpdatedAt.UTC(),
	}
}

func ToResponseList(items []Listing) []ListingResponse {
	out := make([]ListingResponse, 0, len(items))
	for i := range items {
		out = append(out, ToResponse(&items[i]))
	}
	return out
}
