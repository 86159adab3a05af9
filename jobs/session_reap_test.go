package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
)

type stubSessionStore struct {
	removed int64
	err     error
	before  time.Time
}

func (s *stubSessionStore) DeleteExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	s.before = before
	return s.removed, s.err
}

func TestSessionReapPurgesExpiredRows(t *testing.T) {
	store := &stubSessionStore{removed: 3}
	job := NewSessionReapJob(store, slog.New(slog.DiscardHandler), nil)
	now := time.Date(2026, time.August, 29, 3, 45, 0, 0, time.UTC)
	job.clock = func() time.Time { return now }

	if err := job.Handle(context.Background(), NewSessionReapTask()); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !store.before.Equal(now) {
		t.Fatalf("expected reap cutoff %v, got %v", now, store.before)
	}
}

func TestSessionReapPropagatesStoreError(t *testing.T) {
	boom := errors.New("db down")
	job := NewSessionReapJob(&stubSessionStore{err: boom}, slog.New(slog.DiscardHandler), nil)

	if err := job.Handle(context.Background(), NewSessionReapTask()); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestHandleSendEmailSkipsRetryOnBadPayload(t *testing.T) {
	task := asynq.NewTask(TaskTypeSendEmail, []byte("{not json"))
	if err := HandleSendEmailTask(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}
