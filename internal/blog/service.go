// AngelaMos | 2026
// service.go

package blog

import (
	"context"
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

func (s *Service) List(ctx context.Context) ([]Post, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Post, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) Create(ctx context.Context, req PostRequest) (*Post, error) {
	post := req.ToPost(s.now())
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}

	core.AddSpanEvent(ctx, "blog.created", attribute.Int64("blog.id", post.ID))
	return post, nil
}

func (s *Service) Update(ctx context.Context, id int64, req PostRequest) (*Post, error) {
	post := req.ToPost(s.now())
	post.ID = id
	if err := s.repo.Update(ctx, post); err != nil {
		return nil, err
	}

	core.AddSpanEvent(ctx, "blog.updated", attribute.Int64("blog.id", id))
	return post, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	core.AddSpanEvent(ctx, "blog.deleted", attribute.Int64("blog.id", id))
	return nil
}
