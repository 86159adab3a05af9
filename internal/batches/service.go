package batches

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrInvalidDates indicates a batch whose end precedes its start.
var ErrInvalidDates = errors.New("batches: end date before start date")

// Store is the persistence surface the service needs.
type Store interface {
	ListBatches(ctx context.Context) ([]Batch, error)
	CreateBatch(ctx context.Context, name, topic string, start, end time.Time) (int64, error)
	GetBatch(ctx context.Context, id int64) (*Batch, error)
	GetBatchForStudent(ctx context.Context, accountID string) (*Batch, error)
	AssignStudents(ctx context.Context, batchID int64, accountIDs []string) error
	ListMembers(ctx context.Context, batchID int64) ([]Member, error)
	ListAllStudents(ctx context.Context) ([]Member, error)
	CountBatches(ctx context.Context) (int, error)
}

// Service wraps batch business rules.
type Service struct {
	store Store
}

// NewService constructs a new Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns all batches.
func (s *Service) List(ctx context.Context) ([]Batch, error) {
	return s.store.ListBatches(ctx)
}

// Create validates and persists a new batch.
func (s *Service) Create(ctx context.Context, name, topic string, start, end time.Time) (int64, error) {
	name = strings.TrimSpace(name)
	topic = strings.TrimSpace(topic)
	if end.Before(start) {
		return 0, ErrInvalidDates
	}
	return s.store.CreateBatch(ctx, name, topic, start, end)
}

// ForStudent returns the student's batch, or shared.ErrNotFound.
func (s *Service) ForStudent(ctx context.Context, accountID string) (*Batch, error) {
	return s.store.GetBatchForStudent(ctx, accountID)
}

// Assign places students into a batch atomically.
func (s *Service) Assign(ctx context.Context, batchID int64, accountIDs []string) error {
	if len(accountIDs) == 0 {
		return nil
	}
	if _, err := s.store.GetBatch(ctx, batchID); err != nil {
		return err
	}
	return s.store.AssignStudents(ctx, batchID, accountIDs)
}

// Members lists the students in a batch.
func (s *Service) Members(ctx context.Context, batchID int64) ([]Member, error) {
	return s.store.ListMembers(ctx, batchID)
}

// AllStudents lists every active student with current batch membership.
func (s *Service) AllStudents(ctx context.Context) ([]Member, error) {
	return s.store.ListAllStudents(ctx)
}

// Count returns the number of batches.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.CountBatches(ctx)
}
