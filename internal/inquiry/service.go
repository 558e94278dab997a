// AngelaMos | 2026
// service.go

package inquiry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/azadnexus/backend/internal/core"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Submit stores a normalized, validated request and returns the new id.
// Validation happens in the handler; callers from elsewhere must validate
// first.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (int64, error) {
	ctx, span := core.StartSpan(ctx, "inquiry.Submit")
	defer span.End()

	inq := req.ToInquiry()
	if err := s.repo.Create(ctx, inq); err != nil {
		core.SetSpanError(ctx, err)
		return 0, err
	}

	core.AddSpanEvent(ctx, "inquiry.submitted",
		attribute.Int64("inquiry.id", inq.ID),
		attribute.String("inquiry.country", inq.Country),
	)

	return inq.ID, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Inquiry, error) {
	return s.repo.GetByID(ctx, id)
}

type ListParams struct {
	Sort   SortState
	Filter Filter
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Inquiry, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	items = params.Filter.Apply(items)

	sortState := params.Sort
	if sortState.Field == "" {
		sortState = DefaultSort
	}
	Sort(items, sortState)

	return items, nil
}

// Stats is recomputed from a fresh snapshot on every call.
func (s *Service) Stats(ctx context.Context, loc *time.Location) (Stats, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return Stats{}, err
	}

	return ComputeStats(items, s.now(), loc), nil
}

func (s *Service) MarkResolved(ctx context.Context, id int64) error {
	if err := s.repo.MarkResolved(ctx, id); err != nil {
		return err
	}

	core.AddSpanEvent(ctx, "inquiry.resolved", attribute.Int64("inquiry.id", id))
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	core.AddSpanEvent(ctx, "inquiry.deleted", attribute.Int64("inquiry.id", id))
	return nil
}

func (s *Service) Clear(ctx context.Context) (int64, error) {
	n, err := s.repo.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear: %w", err)
	}

	core.AddSpanEvent(ctx, "inquiries.cleared", attribute.Int64("inquiry.count", n))
	return n, nil
}
