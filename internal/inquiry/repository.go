// AngelaMos | 2026
// repository.go

package inquiry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/azadnexus/backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, inq *Inquiry) error
	GetByID(ctx context.Context, id int64) (*Inquiry, error)
	List(ctx context.Context) ([]Inquiry, error)
	MarkResolved(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context) (int64, error)
}

// submitLockKey orders concurrent submissions so that id order and
// submitted_at order agree.
const submitLockKey int64 = 0x696e_7175_6972

const inquiryColumns = `
	id, name, company, country, rice_variety, quantity_mt, message,
	email, phone, status, submitted_at, resolved_at`

type repository struct {
	db core.DB
}

func NewRepository(db core.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, inq *Inquiry) error {
	query := `
		INSERT INTO inquiries (
			name, company, country, rice_variety, quantity_mt, message,
			email, phone, status, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', clock_timestamp())
		RETURNING id, status, submitted_at`

	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := core.AdvisoryXactLock(ctx, tx, submitLockKey); err != nil {
			return fmt.Errorf("create inquiry: %w", err)
		}

		err := tx.QueryRowxContext(ctx, query,
			inq.Name,
			inq.Company,
			inq.Country,
			inq.RiceVariety,
			inq.QuantityMT,
			inq.Message,
			inq.Email,
			inq.Phone,
		).Scan(&inq.ID, &inq.Status, &inq.SubmittedAt)
		if err != nil {
			return fmt.Errorf("create inquiry: %w", err)
		}

		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Inquiry, error) {
	query := `SELECT ` + inquiryColumns + ` FROM inquiries WHERE id = $1`

	var inq Inquiry
	err := r.db.GetContext(ctx, &inq, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get inquiry: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get inquiry: %w", err)
	}

	return &inq, nil
}

// List reads every inquiry in one statement, so the result is a consistent
// snapshot even while writes are in flight.
func (r *repository) List(ctx context.Context) ([]Inquiry, error) {
	query := `SELECT ` + inquiryColumns + ` FROM inquiries ORDER BY id DESC`

	items := []Inquiry{}
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list inquiries: %w", err)
	}

	return items, nil
}

// MarkResolved is a single-row update. PostgreSQL row locks serialize it
// with a concurrent Delete, and an update that finds no row reports
// NotFound instead of recreating it. Resolving twice succeeds.
func (r *repository) MarkResolved(ctx context.Context, id int64) error {
	query := `
		UPDATE inquiries
		SET status = 'resolved',
		    resolved_at = COALESCE(resolved_at, NOW())
		WHERE id = $1`

	return r.execOne(ctx, "mark inquiry resolved", query, id)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM inquiries WHERE id = $1`

	return r.execOne(ctx, "delete inquiry", query, id)
}

func (r *repository) Clear(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM inquiries`)
	if err != nil {
		return 0, fmt.Errorf("clear inquiries: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear inquiries: %w", err)
	}

	return rows, nil
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
