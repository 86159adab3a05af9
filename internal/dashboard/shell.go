package dashboard

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/fsp-portal/fsp-portal/internal/auth"
	"github.com/fsp-portal/fsp-portal/internal/identity"
	"github.com/fsp-portal/fsp-portal/internal/shared"
)

// Outcome is the terminal state of one shell authorization pass.
type Outcome int

const (
	// OutcomeAuthorized means the identity may enter the shell.
	OutcomeAuthorized Outcome = iota
	// OutcomeUnauthenticated means no usable session; redirect to login.
	OutcomeUnauthenticated
	// OutcomeRoleMismatch means a valid identity with the wrong role;
	// redirect to the forbidden page.
	OutcomeRoleMismatch
)

// Shell gates a role's dashboard area. Every request through Require moves
// from loading to exactly one of {authorized, unauthenticated, role-mismatch};
// protected content is only written in the authorized state. The role used
// for the decision always comes from the verified token claim.
type Shell struct {
	service  *auth.Service
	notifier *identity.Notifier
	logger   *slog.Logger
	revoked  *revocationLog
}

// NewShell constructs a Shell and subscribes it to identity changes: a
// sign-out or expiry notification revokes the session for any request
// already in flight, so a newer notification always wins over an older
// authorization decision.
func NewShell(logger *slog.Logger, service *auth.Service, notifier *identity.Notifier) *Shell {
	s := &Shell{
		service:  service,
		notifier: notifier,
		logger:   logger,
		revoked:  newRevocationLog(service.Carrier().TTL()),
	}
	notifier.Subscribe(func(ev identity.Event) {
		switch ev.Kind {
		case identity.EventSignOut, identity.EventExpired:
			s.revoked.revoke(ev.SessionID)
		case identity.EventSignIn:
			s.revoked.lift(ev.SessionID)
		}
	})
	return s
}

// Evaluate resolves the request's identity and compares its verified role
// claim against the role this shell instance protects.
func (s *Shell) Evaluate(w http.ResponseWriter, r *http.Request, role identity.Role) (Outcome, *shared.SessionContext) {
	id, sessionID, err := s.service.Resolve(r.Context(), w, r)
	if err != nil {
		if !errors.Is(err, shared.ErrNoSession) && !errors.Is(err, shared.ErrTokenExpired) {
			s.logger.Error("resolve session", slog.Any("error", err))
		}
		return OutcomeUnauthenticated, nil
	}
	if s.revoked.contains(sessionID) {
		return OutcomeUnauthenticated, nil
	}
	if id.Role != role {
		s.logger.Warn("dashboard role mismatch",
			slog.String("have", id.Role.String()),
			slog.String("want", role.String()),
			slog.String("subject", id.Subject))
		return OutcomeRoleMismatch, nil
	}
	return OutcomeAuthorized, &shared.SessionContext{
		Subject:   id.Subject,
		Name:      id.Name,
		Email:     id.Email,
		Role:      id.Role.String(),
		SessionID: sessionID,
	}
}

// Require wraps handlers inside the shell for the given role. Mismatches
// redirect to /forbidden, missing sessions to the role's login page; inner
// handlers only ever run with a session context installed.
func (s *Shell) Require(role identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			outcome, sc := s.Evaluate(w, r, role)
			switch outcome {
			case OutcomeUnauthenticated:
				http.Redirect(w, r, role.LoginPath(), http.StatusSeeOther)
			case OutcomeRoleMismatch:
				http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
			case OutcomeAuthorized:
				ctx := shared.ContextWithSession(r.Context(), sc)
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}

// revocationLog remembers revoked session IDs for at most the session TTL.
// A revoked sid older than the TTL cannot resolve anyway (its token has
// expired), so entries past retention are pruned on every write and read.
type revocationLog struct {
	retention time.Duration
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]time.Time
}

func newRevocationLog(retention time.Duration) *revocationLog {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &revocationLog{
		retention: retention,
		now:       time.Now,
		entries:   make(map[string]time.Time),
	}
}

func (l *revocationLog) revoke(sessionID string) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(now)
	l.entries[sessionID] = now
}

func (l *revocationLog) lift(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, sessionID)
}

func (l *revocationLog) contains(sessionID string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	revokedAt, ok := l.entries[sessionID]
	if ok && now.Sub(revokedAt) > l.retention {
		delete(l.entries, sessionID)
		return false
	}
	return ok
}

func (l *revocationLog) prune(now time.Time) {
	for sid, revokedAt := range l.entries {
		if now.Sub(revokedAt) > l.retention {
			delete(l.entries, sid)
		}
	}
}
