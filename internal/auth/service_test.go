package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/fsp-portal/fsp-portal/internal/auth"
	"github.com/fsp-portal/fsp-portal/internal/identity"
	"github.com/fsp-portal/fsp-portal/internal/shared"
	_ "github.com/fsp-portal/fsp-portal/testing"
)

type stubProvider struct {
	identity   identity.Identity
	identifier string
	password   string
}

func (s *stubProvider) Authenticate(_ context.Context, identifier, password string, role identity.Role) (identity.Identity, error) {
	if s.identity.Subject == "" || identifier != s.identifier || password != s.password || role != s.identity.Role {
		return identity.Identity{}, shared.ErrInvalidCredentials
	}
	return s.identity, nil
}

func (s *stubProvider) CreateAccount(context.Context, identity.NewAccount) (identity.Identity, error) {
	return identity.Identity{}, errors.New("not implemented")
}

func (s *stubProvider) CheckPassword(context.Context, string, string) error { return nil }

func (s *stubProvider) SetPassword(context.Context, string, string) error { return nil }

type stubSessionRepo struct {
	created []string
	deleted []string
	fail    bool
}

func (s *stubSessionRepo) CreateSession(_ context.Context, id, _ string, _ identity.Role, _, _ time.Time, _, _ string) error {
	if s.fail {
		return errors.New("db down")
	}
	s.created = append(s.created, id)
	return nil
}

func (s *stubSessionRepo) DeleteSession(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubSessionRepo) DeleteExpiredSessions(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type serviceFixture struct {
	service  *auth.Service
	redis    *miniredis.Miniredis
	repo     *stubSessionRepo
	notifier *identity.Notifier
}

func newServiceFixture(t *testing.T, provider identity.Provider) *serviceFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	issuer := identity.NewTokenIssuer("testsecret", time.Hour)
	carrier := auth.NewCarrier(client, "authToken", time.Hour, false)
	repo := &stubSessionRepo{}
	notifier := identity.NewNotifier()
	svc := auth.NewService(slog.New(slog.DiscardHandler), provider, issuer, carrier, repo, notifier)
	return &serviceFixture{service: svc, redis: mr, repo: repo, notifier: notifier}
}

func studentProvider() *stubProvider {
	return &stubProvider{
		identity: identity.Identity{
			Subject: "student_1",
			Name:    "Asha Nair",
			Email:   "asha@fsp.local",
			Role:    identity.RoleStudent,
		},
		identifier: "FSP2026001",
		password:   "pass12345",
	}
}

func sessionCookie(t *testing.T, res *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range res.Result().Cookies() {
		if c.Name == "authToken" {
			return c
		}
	}
	return nil
}

func TestLoginWritesBothCarrierHalves(t *testing.T) {
	fx := newServiceFixture(t, studentProvider())

	var events []identity.Event
	fx.notifier.Subscribe(func(ev identity.Event) { events = append(events, ev) })

	res := httptest.NewRecorder()
	result, err := fx.service.Login(context.Background(), res, auth.LoginInput{
		Identifier: "FSP2026001",
		Password:   "pass12345",
		Role:       identity.RoleStudent,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.RedirectTo != "/student/dashboard" {
		t.Fatalf("unexpected redirect %q", result.RedirectTo)
	}

	cookie := sessionCookie(t, res)
	if cookie == nil || cookie.Value != result.Token {
		t.Fatal("expected authToken cookie carrying the signed token")
	}
	if !cookie.HttpOnly {
		t.Fatal("expected HttpOnly session cookie")
	}
	if !fx.redis.Exists("session:" + result.SessionID) {
		t.Fatal("expected server-side session record")
	}
	if len(fx.repo.created) != 1 || fx.repo.created[0] != result.SessionID {
		t.Fatalf("expected audit row for %s, got %v", result.SessionID, fx.repo.created)
	}
	if len(events) != 1 || events[0].Kind != identity.EventSignIn {
		t.Fatalf("expected one sign-in event, got %+v", events)
	}
}

func TestLoginFailureLeavesCarrierUntouched(t *testing.T) {
	cases := []struct {
		name       string
		identifier string
		password   string
	}{
		{"wrong password", "FSP2026001", "wrong"},
		{"unknown identifier", "FSP9999999", "pass12345"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newServiceFixture(t, studentProvider())

			res := httptest.NewRecorder()
			_, err := fx.service.Login(context.Background(), res, auth.LoginInput{
				Identifier: tc.identifier,
				Password:   tc.password,
				Role:       identity.RoleStudent,
			})
			if !errors.Is(err, shared.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
			if sessionCookie(t, res) != nil {
				t.Fatal("expected no session cookie on failure")
			}
			if keys := fx.redis.Keys(); len(keys) != 0 {
				t.Fatalf("expected no session records, got %v", keys)
			}
			if len(fx.repo.created) != 0 {
				t.Fatal("expected no audit rows on failure")
			}
		})
	}
}

func TestLoginAuditFailureDoesNotUndoLogin(t *testing.T) {
	fx := newServiceFixture(t, studentProvider())
	fx.repo.fail = true

	res := httptest.NewRecorder()
	result, err := fx.service.Login(context.Background(), res, auth.LoginInput{
		Identifier: "FSP2026001",
		Password:   "pass12345",
		Role:       identity.RoleStudent,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sessionCookie(t, res) == nil || !fx.redis.Exists("session:"+result.SessionID) {
		t.Fatal("expected session despite audit write failure")
	}
}

func TestLogoutRemovesSession(t *testing.T) {
	fx := newServiceFixture(t, studentProvider())

	loginRes := httptest.NewRecorder()
	result, err := fx.service.Login(context.Background(), loginRes, auth.LoginInput{
		Identifier: "FSP2026001",
		Password:   "pass12345",
		Role:       identity.RoleStudent,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	var events []identity.Event
	fx.notifier.Subscribe(func(ev identity.Event) { events = append(events, ev) })

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(sessionCookie(t, loginRes))
	res := httptest.NewRecorder()
	if err := fx.service.Logout(context.Background(), res, req); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if fx.redis.Exists("session:" + result.SessionID) {
		t.Fatal("expected session record removed")
	}
	cookie := sessionCookie(t, res)
	if cookie == nil || cookie.MaxAge != -1 {
		t.Fatal("expected expired session cookie")
	}
	if len(fx.repo.deleted) != 1 || fx.repo.deleted[0] != result.SessionID {
		t.Fatalf("expected audit row deleted, got %v", fx.repo.deleted)
	}
	if len(events) != 1 || events[0].Kind != identity.EventSignOut {
		t.Fatalf("expected one sign-out event, got %+v", events)
	}

	// Logging out again reaches the same end state without error.
	again := httptest.NewRequest(http.MethodPost, "/logout", nil)
	if err := fx.service.Logout(context.Background(), httptest.NewRecorder(), again); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestLogoutWithoutSessionSucceeds(t *testing.T) {
	fx := newServiceFixture(t, studentProvider())

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	res := httptest.NewRecorder()
	if err := fx.service.Logout(context.Background(), res, req); err != nil {
		t.Fatalf("expected no-op logout to succeed, got %v", err)
	}
	cookie := sessionCookie(t, res)
	if cookie == nil || cookie.MaxAge != -1 {
		t.Fatal("expected cookie cleared anyway")
	}
}

func TestResolveRequiresBothCarrierHalves(t *testing.T) {
	fx := newServiceFixture(t, studentProvider())

	loginRes := httptest.NewRecorder()
	result, err := fx.service.Login(context.Background(), loginRes, auth.LoginInput{
		Identifier: "FSP2026001",
		Password:   "pass12345",
		Role:       identity.RoleStudent,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/student/dashboard", nil)
	req.AddCookie(sessionCookie(t, loginRes))

	id, sid, err := fx.service.Resolve(context.Background(), httptest.NewRecorder(), req)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if sid != result.SessionID || id.Role != identity.RoleStudent {
		t.Fatalf("unexpected resolution %+v sid=%s", id, sid)
	}

	// Drop the server-side half; the valid token alone must not resolve.
	fx.redis.Del("session:" + result.SessionID)
	res := httptest.NewRecorder()
	if _, _, err := fx.service.Resolve(context.Background(), res, req); !errors.Is(err, shared.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	cookie := sessionCookie(t, res)
	if cookie == nil || cookie.MaxAge != -1 {
		t.Fatal("expected dangling cookie cleared")
	}
}

func TestResolveRejectsTamperedToken(t *testing.T) {
	fx := newServiceFixture(t, studentProvider())

	req := httptest.NewRequest(http.MethodGet, "/student/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "authToken", Value: "tampered.token.value"})

	res := httptest.NewRecorder()
	if _, _, err := fx.service.Resolve(context.Background(), res, req); !errors.Is(err, shared.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}
