package batches

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsp-portal/fsp-portal/internal/shared"
)

type stubStore struct {
	batches  map[int64]*Batch
	assigned map[int64][]string
	created  []Batch
}

func newStubStore() *stubStore {
	return &stubStore{
		batches:  make(map[int64]*Batch),
		assigned: make(map[int64][]string),
	}
}

func (s *stubStore) ListBatches(context.Context) ([]Batch, error) {
	out := make([]Batch, 0, len(s.batches))
	for _, b := range s.batches {
		out = append(out, *b)
	}
	return out, nil
}

func (s *stubStore) CreateBatch(_ context.Context, name, topic string, start, end time.Time) (int64, error) {
	id := int64(len(s.created) + 1)
	s.created = append(s.created, Batch{ID: id, Name: name, Topic: topic, StartDate: start, EndDate: end})
	return id, nil
}

func (s *stubStore) GetBatch(_ context.Context, id int64) (*Batch, error) {
	b, ok := s.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return b, nil
}

func (s *stubStore) GetBatchForStudent(context.Context, string) (*Batch, error) {
	return nil, shared.ErrNotFound
}

func (s *stubStore) AssignStudents(_ context.Context, batchID int64, accountIDs []string) error {
	s.assigned[batchID] = append(s.assigned[batchID], accountIDs...)
	return nil
}

func (s *stubStore) ListMembers(context.Context, int64) ([]Member, error) { return nil, nil }

func (s *stubStore) ListAllStudents(context.Context) ([]Member, error) { return nil, nil }

func (s *stubStore) CountBatches(context.Context) (int, error) { return len(s.batches), nil }

func TestCreateRejectsInvertedDates(t *testing.T) {
	svc := NewService(newStubStore())

	start := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), "Batch A", "Communication", start, start.AddDate(0, 0, -1))
	require.ErrorIs(t, err, ErrInvalidDates)
}

func TestCreateTrimsFields(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)

	start := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	id, err := svc.Create(context.Background(), "  Batch A  ", " Communication ", start, start.AddDate(0, 3, 0))
	require.NoError(t, err)
	require.Len(t, store.created, 1)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, "Batch A", store.created[0].Name)
	assert.Equal(t, "Communication", store.created[0].Topic)
}

func TestAssignRequiresExistingBatch(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)

	err := svc.Assign(context.Background(), 42, []string{"acc-1"})
	require.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, store.assigned)
}

func TestAssignPlacesStudents(t *testing.T) {
	store := newStubStore()
	store.batches[7] = &Batch{ID: 7, Name: "Batch A"}
	svc := NewService(store)

	require.NoError(t, svc.Assign(context.Background(), 7, []string{"acc-1", "acc-2"}))
	assert.Equal(t, []string{"acc-1", "acc-2"}, store.assigned[7])
}

func TestAssignIgnoresEmptySelection(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)

	require.NoError(t, svc.Assign(context.Background(), 7, nil))
	assert.Empty(t, store.assigned)
}
