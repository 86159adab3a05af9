package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fsp-portal/fsp-portal/internal/jobs"
)

// SessionStore removes session audit records past their expiry.
type SessionStore interface {
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// SessionReapJob purges expired session audit rows. The Redis session
// records expire on their own TTL; this job keeps the PostgreSQL audit
// table from growing without bound.
type SessionReapJob struct {
	Store   SessionStore
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewSessionReapJob constructs the job handler.
func NewSessionReapJob(store SessionStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionReapJob {
	return &SessionReapJob{
		Store:   store,
		Logger:  logger,
		Metrics: metrics,
		clock:   time.Now,
	}
}

// Handle processes TaskTypeSessionReap tasks.
func (j *SessionReapJob) Handle(ctx context.Context, _ *asynq.Task) error {
	tracker := j.Metrics.Track("session_reap")
	now := j.clock()
	removed, err := j.Store.DeleteExpiredSessions(ctx, now)
	if err != nil {
		j.Logger.Error("session reap failed", slog.Any("error", err))
		return tracker.End(err)
	}
	if removed > 0 {
		j.Logger.Info("session reap completed", slog.Int64("removed", removed))
	}
	j.Metrics.AddReapedSessions(removed)
	return tracker.End(nil)
}
