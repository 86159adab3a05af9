package timetables

import (
	"context"
	"errors"
	"strings"
)

// Sentinel errors for timetable validation.
var (
	ErrInvalidSlot = errors.New("timetables: end time not after start time")
	ErrOverlap     = errors.New("timetables: entry overlaps an existing slot")
)

// Store is the persistence surface the service needs.
type Store interface {
	ListForBatch(ctx context.Context, batchID int64) ([]Entry, error)
	ListForStudent(ctx context.Context, accountID string) ([]Entry, error)
	CreateEntry(ctx context.Context, e Entry) (int64, error)
	DeleteEntry(ctx context.Context, id int64) error
}

// Service enforces timetable rules: a batch cannot hold two entries
// whose time ranges intersect on the same day.
type Service struct {
	store Store
}

// NewService constructs a new Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ForBatch returns a batch's entries grouped-ready (pre-sorted by day and start).
func (s *Service) ForBatch(ctx context.Context, batchID int64) ([]Entry, error) {
	return s.store.ListForBatch(ctx, batchID)
}

// ForStudent returns the timetable of the batch the student belongs to.
func (s *Service) ForStudent(ctx context.Context, accountID string) ([]Entry, error) {
	return s.store.ListForStudent(ctx, accountID)
}

// Create validates an entry against the batch's existing schedule and
// persists it. A conflicting slot yields ErrOverlap.
func (s *Service) Create(ctx context.Context, e Entry) (int64, error) {
	e.Subject = strings.TrimSpace(e.Subject)
	e.Faculty = strings.TrimSpace(e.Faculty)
	if !e.Day.Valid() {
		return 0, ErrInvalidSlot
	}
	if e.End <= e.Start {
		return 0, ErrInvalidSlot
	}
	existing, err := s.store.ListForBatch(ctx, e.BatchID)
	if err != nil {
		return 0, err
	}
	for _, other := range existing {
		if e.Overlaps(other) {
			return 0, ErrOverlap
		}
	}
	return s.store.CreateEntry(ctx, e)
}

// Delete removes an entry.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteEntry(ctx, id)
}
