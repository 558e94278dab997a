// AngelaMos | 2026
// repository_test.go

package inquiry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azadnexus/backend/internal/core"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestCreateTakesSubmitLock(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).
		WithArgs(submitLockKey).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO inquiries .* clock_timestamp\(\)\) RETURNING id, status, submitted_at`).
		WithArgs("Jane Doe", "Acme", "UAE", "1121 Basmati", 25.0, "Need pricing", nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "submitted_at"}).
			AddRow(1, "pending", at))
	mock.ExpectCommit()

	inq := &Inquiry{
		Name:        "Jane Doe",
		Company:     "Acme",
		Country:     "UAE",
		RiceVariety: "1121 Basmati",
		QuantityMT:  25,
		Message:     "Need pricing",
	}
	require.NoError(t, repo.Create(context.Background(), inq))

	assert.Equal(t, int64(1), inq.ID)
	assert.Equal(t, StatusPending, inq.Status)
	assert.Equal(t, at, inq.SubmittedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRollsBackOnInsertFailure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO inquiries`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &Inquiry{Name: "x"})
	assert.ErrorContains(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkResolved(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE inquiries SET status = 'resolved'`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE inquiries SET status = 'resolved'`).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.MarkResolved(context.Background(), 1))
	assert.ErrorIs(t, repo.MarkResolved(context.Background(), 99), core.ErrNotFound)
}

func TestRepositoryDeleteAndClear(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM inquiries WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`^DELETE FROM inquiries$`).
		WillReturnResult(sqlmock.NewResult(0, 4))

	assert.ErrorIs(t, repo.Delete(context.Background(), 3), core.ErrNotFound)

	n, err := repo.Clear(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrdersByIDDesc(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Now()

	cols := []string{
		"id", "name", "company", "country", "rice_variety", "quantity_mt",
		"message", "email", "phone", "status", "submitted_at", "resolved_at",
	}
	mock.ExpectQuery(`FROM inquiries ORDER BY id DESC`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(2, "B", "Co", "Oman", "Other", 3.5, "hello", nil, "+968 1234567", "resolved", at, at).
			AddRow(1, "A", "Co", "UAE", "Other", 1.0, "hello", "a@b.co", nil, "pending", at, nil))

	items, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].ID)
	assert.True(t, items[0].IsResolved())
	assert.Nil(t, items[0].Email)
	require.NotNil(t, items[1].Email)
	assert.Equal(t, "a@b.co", *items[1].Email)
}

func TestGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Now()

	cols := []string{
		"id", "name", "company", "country", "rice_variety", "quantity_mt",
		"message", "email", "phone", "status", "submitted_at", "resolved_at",
	}
	mock.ExpectQuery(`FROM inquiries WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(7, "A", "Co", "UAE", "Other", 12.5, "hello", nil, nil, "pending", at, nil))
	mock.ExpectQuery(`FROM inquiries WHERE id = \$1`).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows(cols))

	inq, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 12.5, inq.QuantityMT)

	_, err = repo.GetByID(context.Background(), 8)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
