// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/azadnexus/backend/internal/core"
)

// ErrLastAdmin is returned when a change would leave no admin account.
var ErrLastAdmin = fmt.Errorf("last remaining admin: %w", core.ErrConflict)

// roleLockKey serializes every change that can reduce the admin count.
const roleLockKey int64 = 0x6164_6d69_6e73

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	SetRole(ctx context.Context, id, role string) (*User, error)
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	CountAdmins(ctx context.Context) (int, error)
}

const userColumns = `
	id, username, password_hash, role, token_version,
	created_at, updated_at, deleted_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at, token_version`

	err := r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Role,
	).Scan(&user.CreatedAt, &user.UpdatedAt, &user.TokenVersion)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	return getOne(ctx, r.db, "id", id)
}

func (r *repository) GetByUsername(
	ctx context.Context,
	username string,
) (*User, error) {
	return getOne(ctx, r.db, "username", username)
}

func getOne(ctx context.Context, db core.DBTX, column, value string) (*User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE ` + column + ` = $1 AND deleted_at IS NULL`

	var user User
	err := db.GetContext(ctx, &user, query, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET username = $2, password_hash = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.Username,
		user.PasswordHash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("update user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	return execOne(ctx, r.db, "update password", query, id, passwordHash)
}

func (r *repository) IncrementTokenVersion(
	ctx context.Context,
	id string,
) error {
	query := `
		UPDATE users
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	return execOne(ctx, r.db, "increment token version", query, id)
}

// SetRole changes the stored role and bumps token_version when the role
// actually changes. Demoting the last admin fails with ErrLastAdmin.
func (r *repository) SetRole(
	ctx context.Context,
	id, role string,
) (*User, error) {
	var updated User

	err := r.withRoleLock(ctx, func(db core.DBTX) error {
		current, err := getOne(ctx, db, "id", id)
		if err != nil {
			return err
		}

		if current.IsAdmin() && role != RoleAdmin {
			if err := ensureOtherAdmin(ctx, db); err != nil {
				return err
			}
		}

		query := `
			UPDATE users
			SET role = $2,
			    token_version = token_version +
			        CASE WHEN role <> $2 THEN 1 ELSE 0 END,
			    updated_at = NOW()
			WHERE id = $1 AND deleted_at IS NULL
			RETURNING ` + userColumns

		if err := db.GetContext(ctx, &updated, query, id, role); err != nil {
			return fmt.Errorf("set role: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	return r.withRoleLock(ctx, func(db core.DBTX) error {
		current, err := getOne(ctx, db, "id", id)
		if err != nil {
			return err
		}

		if current.IsAdmin() {
			if err := ensureOtherAdmin(ctx, db); err != nil {
				return err
			}
		}

		query := `
			UPDATE users
			SET deleted_at = NOW(), updated_at = NOW(),
			    token_version = token_version + 1
			WHERE id = $1 AND deleted_at IS NULL`

		return execOne(ctx, db, "delete user", query, id)
	})
}

func (r *repository) CountAdmins(ctx context.Context) (int, error) {
	return countAdmins(ctx, r.db)
}

func countAdmins(ctx context.Context, db core.DBTX) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE role = 'admin' AND deleted_at IS NULL`

	var n int
	if err := db.GetContext(ctx, &n, query); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}

func ensureOtherAdmin(ctx context.Context, db core.DBTX) error {
	n, err := countAdmins(ctx, db)
	if err != nil {
		return err
	}
	if n <= 1 {
		return ErrLastAdmin
	}
	return nil
}

// withRoleLock runs fn in a transaction holding the role advisory lock. When
// the repository is already bound to a transaction, fn runs on it directly.
func (r *repository) withRoleLock(
	ctx context.Context,
	fn func(db core.DBTX) error,
) error {
	beginner, ok := r.db.(core.TxBeginner)
	if !ok {
		if err := core.AdvisoryXactLock(ctx, r.db, roleLockKey); err != nil {
			return err
		}
		return fn(r.db)
	}

	return core.InTx(ctx, beginner, func(tx *sqlx.Tx) error {
		if err := core.AdvisoryXactLock(ctx, tx, roleLockKey); err != nil {
			return err
		}
		return fn(tx)
	})
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	conditions := []string{"deleted_at IS NULL"}
	var args []any
	argIdx := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf("username ILIKE $%d", argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM users WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	users := []User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func execOne(ctx context.Context, db core.DBTX, op, query string, args ...any) error {
	result, err := db.ExecContext(ctx, query, args...)
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

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
