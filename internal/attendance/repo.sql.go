package attendance

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for attendance.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// MarkDay records presence for every current member of the batch on the
// given day. Members absent from presentIDs are recorded as absent.
// Re-marking the same day overwrites the earlier record.
func (r *Repository) MarkDay(ctx context.Context, batchID int64, day time.Time, markedBy string, presentIDs []string) error {
	if presentIDs == nil {
		presentIDs = []string{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attendance_records (batch_id, account_id, day, present, marked_by, created_at)
		SELECT m.batch_id, m.account_id, $2::date, m.account_id = ANY($3::text[]), $4, now()
		FROM batch_members m
		WHERE m.batch_id = $1
		ON CONFLICT (batch_id, account_id, day)
		DO UPDATE SET present = EXCLUDED.present, marked_by = EXCLUDED.marked_by`,
		batchID, day, presentIDs, markedBy)
	return err
}

// ListForStudent returns a student's records, most recent day first.
func (r *Repository) ListForStudent(ctx context.Context, accountID string) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, batch_id, account_id, day, present, marked_by, created_at
		FROM attendance_records
		WHERE account_id = $1
		ORDER BY day DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.BatchID, &rec.AccountID, &rec.Date, &rec.Present, &rec.MarkedBy, &rec.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// ReportForBatch aggregates per-student attendance for a batch.
func (r *Repository) ReportForBatch(ctx context.Context, batchID int64) ([]ReportRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.account_id, coalesce(acc.student_id, ''), acc.name,
		       count(*) FILTER (WHERE a.present), count(*)
		FROM attendance_records a
		JOIN accounts acc ON acc.id = a.account_id
		WHERE a.batch_id = $1
		GROUP BY a.account_id, acc.student_id, acc.name
		ORDER BY acc.name`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []ReportRow
	for rows.Next() {
		var row ReportRow
		if err := rows.Scan(&row.AccountID, &row.StudentID, &row.Name, &row.Present, &row.Total); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
