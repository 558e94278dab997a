// AngelaMos | 2026
// repository.go

package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/azadnexus/backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, post *Post) error
	GetByID(ctx context.Context, id int64) (*Post, error)
	List(ctx context.Context) ([]Post, error)
	Update(ctx context.Context, post *Post) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

const postColumns = `
	id, title, content, image_description, published_date, created_at, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, post *Post) error {
	query := `
		INSERT INTO blog_posts (title, content, image_description, published_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		post.Title,
		post.Content,
		post.ImageDescription,
		post.PublishedDate,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create blog post: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Post, error) {
	query := `SELECT ` + postColumns + ` FROM blog_posts WHERE id = $1`

	var post Post
	err := r.db.GetContext(ctx, &post, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get blog post: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get blog post: %w", err)
	}

	return &post, nil
}

func (r *repository) List(ctx context.Context) ([]Post, error) {
	query := `SELECT ` + postColumns + `
		FROM blog_posts
		ORDER BY published_date DESC, id DESC`

	posts := []Post{}
	if err := r.db.SelectContext(ctx, &posts, query); err != nil {
		return nil, fmt.Errorf("list blog posts: %w", err)
	}

	return posts, nil
}

func (r *repository) Update(ctx context.Context, post *Post) error {
	query := `
		UPDATE blog_posts
		SET title = $2,
		    content = $3,
		    image_description = $4,
		    published_date = $5,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		post.ImageDescription,
		post.PublishedDate,
	).Scan(&post.CreatedAt, &post.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update blog post: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update blog post: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blog post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete blog post: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete blog post: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM blog_posts`); err != nil {
		return 0, fmt.Errorf("count blog posts: %w", err)
	}
	return n, nil
}
