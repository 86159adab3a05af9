package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fsp-portal/fsp-portal/internal/identity"
	"github.com/fsp-portal/fsp-portal/internal/shared"
)

// providerTimeout bounds every call into the credential store. Deadline
// expiry surfaces as shared.ErrProviderUnavailable, a transient failure the
// user may retry manually.
const providerTimeout = 10 * time.Second

// Service orchestrates the login and logout flows: credential-store calls,
// token issuance, carrier writes, and the session audit trail.
type Service struct {
	provider identity.Provider
	issuer   *identity.TokenIssuer
	carrier  *Carrier
	repo     Repository
	notifier *identity.Notifier
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, provider identity.Provider, issuer *identity.TokenIssuer, carrier *Carrier, repo Repository, notifier *identity.Notifier) *Service {
	return &Service{
		provider: provider,
		issuer:   issuer,
		carrier:  carrier,
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

// Issuer exposes the token issuer for verification at other boundaries.
func (s *Service) Issuer() *identity.TokenIssuer { return s.issuer }

// Carrier exposes the session carrier.
func (s *Service) Carrier() *Carrier { return s.carrier }

// LoginInput carries one login attempt.
type LoginInput struct {
	Identifier string
	Password   string
	Role       identity.Role
	RemoteAddr string
	UserAgent  string
}

// LoginResult reports a successful login.
type LoginResult struct {
	Identity   identity.Identity
	SessionID  string
	Token      string
	RedirectTo string
}

// Login authenticates against the credential store and, on success, writes
// both carrier representations and records the session for audit. On any
// failure the carrier is untouched.
func (s *Service) Login(ctx context.Context, w http.ResponseWriter, in LoginInput) (*LoginResult, error) {
	pctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	id, err := s.provider.Authenticate(pctx, in.Identifier, in.Password, in.Role)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(pctx.Err(), context.DeadlineExceeded) {
			return nil, shared.ErrProviderUnavailable
		}
		return nil, err
	}

	now := time.Now().UTC()
	sessionID := uuid.NewString()
	token, err := s.issuer.Issue(id, sessionID, now)
	if err != nil {
		return nil, err
	}

	expiresAt := now.Add(s.issuer.TTL())
	if err := s.carrier.Activate(ctx, w, sessionID, token, SessionRecord{
		Subject:   id.Subject,
		Name:      id.Name,
		Email:     id.Email,
		Role:      id.Role,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, err
	}

	// Audit trail only: a write failure here must not undo the login.
	if err := s.repo.CreateSession(ctx, sessionID, id.Subject, id.Role, now, expiresAt, in.RemoteAddr, in.UserAgent); err != nil {
		s.logger.Warn("record session", slog.Any("error", err))
	}

	s.notifier.Publish(identity.Event{Kind: identity.EventSignIn, SessionID: sessionID, Identity: &id})

	return &LoginResult{
		Identity:   id,
		SessionID:  sessionID,
		Token:      token,
		RedirectTo: id.Role.DashboardPath(),
	}, nil
}

// Logout tears down the session. Local clearing always happens, even when
// the store calls fail, and logging out with no session is a no-op success.
func (s *Service) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	token, err := s.carrier.ReadToken(r)
	if err != nil {
		// Already logged out; clearing the cookie again is harmless.
		_ = s.carrier.Clear(ctx, w, "")
		return nil
	}

	sessionID := ""
	if claims, ok := s.issuer.Peek(token); ok {
		sessionID = claims.SessionID
	}

	if sessionID != "" {
		if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
			s.logger.Warn("delete session record", slog.Any("error", err))
		}
	}
	if err := s.carrier.Clear(ctx, w, sessionID); err != nil {
		s.logger.Warn("clear session store", slog.Any("error", err))
	}

	s.notifier.Publish(identity.Event{Kind: identity.EventSignOut, SessionID: sessionID})
	return nil
}

// Resolve verifies the request's token and cross-checks it against the
// server-side session record. Both halves of the carrier must agree; a
// missing record for a valid token (or any other divergence) reads as no
// session and the leftover half is cleared.
func (s *Service) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) (identity.Identity, string, error) {
	token, err := s.carrier.ReadToken(r)
	if err != nil {
		return identity.Identity{}, "", shared.ErrNoSession
	}

	claims, err := s.issuer.Verify(token)
	if err != nil {
		if peeked, ok := s.issuer.Peek(token); ok {
			_ = s.carrier.Clear(ctx, w, peeked.SessionID)
		} else {
			_ = s.carrier.Clear(ctx, w, "")
		}
		return identity.Identity{}, "", err
	}

	if _, err := s.carrier.Lookup(ctx, claims.SessionID); err != nil {
		if errors.Is(err, shared.ErrNoSession) || errors.Is(err, shared.ErrTokenExpired) {
			_ = s.carrier.Clear(ctx, w, claims.SessionID)
		}
		return identity.Identity{}, "", err
	}

	return claims.Identity(), claims.SessionID, nil
}
