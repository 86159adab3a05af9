package identity

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fsp-portal/fsp-portal/internal/shared"
)

// PGRepository implements AccountRepository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL account repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const accountColumns = `id, role, student_id, email, name, password_hash, is_active, created_at, updated_at`

// FindByIdentifier fetches an account by its role-scoped identifier:
// student ID for students, email for staff.
func (r *PGRepository) FindByIdentifier(ctx context.Context, identifier string, role Role) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE role = $1 AND email = lower($2)`
	if role == RoleStudent {
		query = `SELECT ` + accountColumns + ` FROM accounts WHERE role = $1 AND student_id = $2`
	}
	return r.scanOne(ctx, query, string(role), identifier)
}

// FindBySubject fetches an account by its opaque subject ID.
func (r *PGRepository) FindBySubject(ctx context.Context, subject string) (*Account, error) {
	return r.scanOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, subject)
}

// Create inserts a new account record.
func (r *PGRepository) Create(ctx context.Context, acct Account) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, role, student_id, email, name, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $8)`,
		acct.ID, string(acct.Role), acct.StudentID, acct.Email, acct.Name, acct.PasswordHash, acct.IsActive, now)
	return err
}

// UpdatePasswordHash replaces the stored password hash.
func (r *PGRepository) UpdatePasswordHash(ctx context.Context, subject, hash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE accounts SET password_hash = $2, updated_at = now() WHERE id = $1`, subject, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) scanOne(ctx context.Context, query string, args ...any) (*Account, error) {
	var (
		acct      Account
		role      string
		studentID *string
	)
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&acct.ID, &role, &studentID, &acct.Email, &acct.Name,
		&acct.PasswordHash, &acct.IsActive, &acct.CreatedAt, &acct.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	acct.Role = Role(role)
	if studentID != nil {
		acct.StudentID = *studentID
	}
	return &acct, nil
}

var _ AccountRepository = (*PGRepository)(nil)
