// AngelaMos | 2026
// service.go

package listing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/azadnexus/backend/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Listing, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Listing, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) Create(ctx context.Context, req ListingRequest) (*Listing, error) {
	l := req.ToListing()
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	core.AddSpanEvent(ctx, "listing.created", attribute.Int64("listing.id", l.ID))
	return l, nil
}

func (s *Service) Update(ctx context.Context, id int64, req ListingRequest) (*Listing, error) {
	l := req.ToListing()
	l.ID = id
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	core.AddSpanEvent(ctx, "listing.deleted", attribute.Int64("listing.id", id))
	return nil
}
