package timetables

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fsp-portal/fsp-portal/internal/shared"
)

// Repository provides PostgreSQL backed persistence for timetable entries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entryColumns = `
	e.id, e.batch_id, b.name, e.day, e.start_minute, e.end_minute,
	e.subject, e.faculty, e.created_at`

// ListForBatch returns a batch's entries ordered for display.
func (r *Repository) ListForBatch(ctx context.Context, batchID int64) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM timetable_entries e
		JOIN batches b ON b.id = e.batch_id
		WHERE e.batch_id = $1
		ORDER BY array_position(
			ARRAY['monday','tuesday','wednesday','thursday','friday','saturday','sunday'],
			e.day), e.start_minute`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListForStudent returns the timetable of the batch the student belongs to.
func (r *Repository) ListForStudent(ctx context.Context, accountID string) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM timetable_entries e
		JOIN batches b ON b.id = e.batch_id
		JOIN batch_members m ON m.batch_id = e.batch_id
		WHERE m.account_id = $1
		ORDER BY array_position(
			ARRAY['monday','tuesday','wednesday','thursday','friday','saturday','sunday'],
			e.day), e.start_minute`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// CreateEntry inserts an entry and returns its ID.
func (r *Repository) CreateEntry(ctx context.Context, e Entry) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO timetable_entries (batch_id, day, start_minute, end_minute, subject, faculty, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id`,
		e.BatchID, string(e.Day), e.Start, e.End, e.Subject, e.Faculty).Scan(&id)
	return id, err
}

// DeleteEntry removes one entry.
func (r *Repository) DeleteEntry(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM timetable_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	var result []Entry
	for rows.Next() {
		var e Entry
		var day string
		if err := rows.Scan(&e.ID, &e.BatchID, &e.BatchName, &day, &e.Start, &e.End, &e.Subject, &e.Faculty, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Day = Weekday(day)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
