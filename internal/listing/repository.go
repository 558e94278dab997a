// AngelaMos | 2026
// repository.go

package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/azadnexus/backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, l *Listing) error
	GetByID(ctx context.Context, id int64) (*Listing, error)
	List(ctx context.Context) ([]Listing, error)
	Update(ctx context.Context, l *Listing) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

const listingColumns = `id, name, description, details, created_at, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, l *Listing) error {
	query := `
		INSERT INTO service_listings (name, description, details)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, l.Name, l.Description, l.Details).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create service listing: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM service_listings WHERE id = $1`

	var l Listing
	err := r.db.GetContext(ctx, &l, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get service listing: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get service listing: %w", err)
	}

	return &l, nil
}

func (r *repository) List(ctx context.Context) ([]Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM service_listings ORDER BY id ASC`

	items := []Listing{}
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list service listings: %w", err)
	}

	return items, nil
}

func (r *repository) Update(ctx context.Context, l *Listing) error {
	query := `
		UPDATE service_listings
		SET name = $2, description = $3, details = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, l.ID, l.Name, l.Description, l.Details).
		Scan(&l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update service listing: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update service listing: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM service_listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete service listing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete service listing: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete service listing: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM service_listings`); err != nil {
		return 0, fmt.Errorf("count service listings: %w", err)
	}
	return n, nil
}
