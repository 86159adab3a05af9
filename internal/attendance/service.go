package attendance

import (
	"context"
	"errors"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrNoDate indicates a mark request without a usable session date.
var ErrNoDate = errors.New("attendance: missing session date")

// Store is the persistence surface the service needs.
type Store interface {
	MarkDay(ctx context.Context, batchID int64, day time.Time, markedBy string, presentIDs []string) error
	ListForStudent(ctx context.Context, accountID string) ([]Record, error)
	ReportForBatch(ctx context.Context, batchID int64) ([]ReportRow, error)
}

// Service wraps attendance business rules. Batch report builds are
// collapsed through singleflight so concurrent requests for the same
// batch share one aggregation query.
type Service struct {
	store Store
	group singleflight.Group
}

// NewService constructs a new Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// MarkDay records a day's attendance for a batch. IDs not listed in
// presentIDs are marked absent; marking the same day again overwrites.
func (s *Service) MarkDay(ctx context.Context, batchID int64, day time.Time, markedBy string, presentIDs []string) error {
	if day.IsZero() {
		return ErrNoDate
	}
	seen := make(map[string]struct{}, len(presentIDs))
	deduped := make([]string, 0, len(presentIDs))
	for _, id := range presentIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		deduped = append(deduped, id)
	}
	return s.store.MarkDay(ctx, batchID, day, markedBy, deduped)
}

// ForStudent returns a student's records plus their summary.
func (s *Service) ForStudent(ctx context.Context, accountID string) ([]Record, Summary, error) {
	records, err := s.store.ListForStudent(ctx, accountID)
	if err != nil {
		return nil, Summary{}, err
	}
	var sum Summary
	for _, rec := range records {
		sum.Total++
		if rec.Present {
			sum.Present++
		}
	}
	return records, sum, nil
}

// Report builds the per-student aggregation for a batch, deduplicating
// concurrent builds for the same batch.
func (s *Service) Report(ctx context.Context, batchID int64) ([]ReportRow, error) {
	key := "report:" + strconv.FormatInt(batchID, 10)
	resultChan := s.group.DoChan(key, func() (interface{}, error) {
		return s.store.ReportForBatch(ctx, batchID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]ReportRow), nil
	}
}
