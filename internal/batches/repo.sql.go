package batches

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fsp-portal/fsp-portal/internal/platform/db"
	"github.com/fsp-portal/fsp-portal/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListBatches returns all batches with member counts, newest first.
func (r *Repository) ListBatches(ctx context.Context) ([]Batch, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.name, b.topic, b.start_date, b.end_date,
		       (SELECT count(*) FROM batch_members m WHERE m.batch_id = b.id),
		       b.created_at, b.updated_at
		FROM batches b
		ORDER BY b.start_date DESC, b.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.Name, &b.Topic, &b.StartDate, &b.EndDate, &b.StudentCount, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// CreateBatch inserts a batch and returns its ID.
func (r *Repository) CreateBatch(ctx context.Context, name, topic string, start, end time.Time) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO batches (name, topic, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id`,
		name, topic, start, end).Scan(&id)
	return id, err
}

// GetBatch fetches one batch by ID.
func (r *Repository) GetBatch(ctx context.Context, id int64) (*Batch, error) {
	var b Batch
	err := r.pool.QueryRow(ctx, `
		SELECT b.id, b.name, b.topic, b.start_date, b.end_date,
		       (SELECT count(*) FROM batch_members m WHERE m.batch_id = b.id),
		       b.created_at, b.updated_at
		FROM batches b WHERE b.id = $1`, id).
		Scan(&b.ID, &b.Name, &b.Topic, &b.StartDate, &b.EndDate, &b.StudentCount, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// GetBatchForStudent returns the batch a student account belongs to.
func (r *Repository) GetBatchForStudent(ctx context.Context, accountID string) (*Batch, error) {
	var b Batch
	err := r.pool.QueryRow(ctx, `
		SELECT b.id, b.name, b.topic, b.start_date, b.end_date,
		       (SELECT count(*) FROM batch_members m WHERE m.batch_id = b.id),
		       b.created_at, b.updated_at
		FROM batches b
		JOIN batch_members bm ON bm.batch_id = b.id
		WHERE bm.account_id = $1`, accountID).
		Scan(&b.ID, &b.Name, &b.Topic, &b.StartDate, &b.EndDate, &b.StudentCount, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// AssignStudents moves students into a batch inside one transaction,
// replacing any prior membership. Either every assignment lands or none.
func (r *Repository) AssignStudents(ctx context.Context, batchID int64, accountIDs []string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, accountID := range accountIDs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO batch_members (batch_id, account_id)
				VALUES ($1, $2)
				ON CONFLICT (account_id) DO UPDATE SET batch_id = EXCLUDED.batch_id`,
				batchID, accountID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListMembers returns the students assigned to a batch.
func (r *Repository) ListMembers(ctx context.Context, batchID int64) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.student_id, a.name, bm.batch_id, b.name
		FROM batch_members bm
		JOIN accounts a ON a.id = bm.account_id
		JOIN batches b ON b.id = bm.batch_id
		WHERE bm.batch_id = $1
		ORDER BY a.name`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMembers(rows)
}

// ListAllStudents returns every student account with its batch, if any.
func (r *Repository) ListAllStudents(ctx context.Context) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.student_id, a.name, COALESCE(bm.batch_id, 0), COALESCE(b.name, '')
		FROM accounts a
		LEFT JOIN batch_members bm ON bm.account_id = a.id
		LEFT JOIN batches b ON b.id = bm.batch_id
		WHERE a.role = 'student' AND a.is_active
		ORDER BY a.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMembers(rows)
}

// CountBatches returns the total number of batches.
func (r *Repository) CountBatches(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM batches`).Scan(&n)
	return n, err
}

func scanMembers(rows pgx.Rows) ([]Member, error) {
	var result []Member
	for rows.Next() {
		var (
			m         Member
			studentID *string
		)
		if err := rows.Scan(&m.AccountID, &studentID, &m.Name, &m.BatchID, &m.BatchName); err != nil {
			return nil, err
		}
		if studentID != nil {
			m.StudentID = *studentID
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
