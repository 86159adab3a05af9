package timetables

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	entries []Entry
	nextID  int64
}

func (s *stubStore) ListForBatch(_ context.Context, batchID int64) ([]Entry, error) {
	var out []Entry
	for _, e := range s.entries {
		if e.BatchID == batchID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubStore) ListForStudent(context.Context, string) ([]Entry, error) {
	return s.entries, nil
}

func (s *stubStore) CreateEntry(_ context.Context, e Entry) (int64, error) {
	s.nextID++
	e.ID = s.nextID
	s.entries = append(s.entries, e)
	return e.ID, nil
}

func (s *stubStore) DeleteEntry(context.Context, int64) error { return nil }

func TestCreateRejectsInvalidSlot(t *testing.T) {
	svc := NewService(&stubStore{})

	_, err := svc.Create(context.Background(), Entry{BatchID: 1, Day: Monday, Start: 600, End: 600, Subject: "Etiquette"})
	assert.ErrorIs(t, err, ErrInvalidSlot)

	_, err = svc.Create(context.Background(), Entry{BatchID: 1, Day: Weekday("someday"), Start: 600, End: 660, Subject: "Etiquette"})
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestCreateRejectsOverlap(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store)

	_, err := svc.Create(context.Background(), Entry{BatchID: 1, Day: Monday, Start: 540, End: 600, Subject: "Etiquette"})
	require.NoError(t, err)

	cases := []struct {
		name    string
		entry   Entry
		wantErr error
	}{
		{
			name:    "identical slot",
			entry:   Entry{BatchID: 1, Day: Monday, Start: 540, End: 600, Subject: "Grooming"},
			wantErr: ErrOverlap,
		},
		{
			name:    "straddles the start",
			entry:   Entry{BatchID: 1, Day: Monday, Start: 510, End: 570, Subject: "Grooming"},
			wantErr: ErrOverlap,
		},
		{
			name:    "contained within",
			entry:   Entry{BatchID: 1, Day: Monday, Start: 550, End: 590, Subject: "Grooming"},
			wantErr: ErrOverlap,
		},
		{
			name:  "back to back is allowed",
			entry: Entry{BatchID: 1, Day: Monday, Start: 600, End: 660, Subject: "Grooming"},
		},
		{
			name:  "same time on another day",
			entry: Entry{BatchID: 1, Day: Tuesday, Start: 540, End: 600, Subject: "Grooming"},
		},
		{
			name:  "same time for another batch",
			entry: Entry{BatchID: 2, Day: Monday, Start: 540, End: 600, Subject: "Grooming"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.entry)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClockHelpers(t *testing.T) {
	e := Entry{Start: 9*60 + 5, End: 17 * 60}
	assert.Equal(t, "09:05", e.StartClock())
	assert.Equal(t, "17:00", e.EndClock())

	m, ok := ParseClock("13:45")
	require.True(t, ok)
	assert.Equal(t, 13*60+45, m)

	_, ok = ParseClock("25:00")
	assert.False(t, ok)
}
