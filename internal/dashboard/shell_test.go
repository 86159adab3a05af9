package dashboard_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/fsp-portal/fsp-portal/internal/auth"
	"github.com/fsp-portal/fsp-portal/internal/dashboard"
	"github.com/fsp-portal/fsp-portal/internal/identity"
	"github.com/fsp-portal/fsp-portal/internal/shared"
	_ "github.com/fsp-portal/fsp-portal/testing"
)

type fixedProvider struct {
	identity identity.Identity
}

func (p *fixedProvider) Authenticate(_ context.Context, _, _ string, role identity.Role) (identity.Identity, error) {
	if role != p.identity.Role {
		return identity.Identity{}, shared.ErrInvalidCredentials
	}
	return p.identity, nil
}

func (p *fixedProvider) CreateAccount(context.Context, identity.NewAccount) (identity.Identity, error) {
	return identity.Identity{}, shared.ErrInvalidCredentials
}

func (p *fixedProvider) CheckPassword(context.Context, string, string) error { return nil }

func (p *fixedProvider) SetPassword(context.Context, string, string) error { return nil }

type noopSessionRepo struct{}

func (noopSessionRepo) CreateSession(context.Context, string, string, identity.Role, time.Time, time.Time, string, string) error {
	return nil
}

func (noopSessionRepo) DeleteSession(context.Context, string) error { return nil }

func (noopSessionRepo) DeleteExpiredSessions(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type shellFixture struct {
	shell    *dashboard.Shell
	service  *auth.Service
	notifier *identity.Notifier
}

func newShellFixture(t *testing.T, role identity.Role) *shellFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := slog.New(slog.DiscardHandler)
	notifier := identity.NewNotifier()
	provider := &fixedProvider{identity: identity.Identity{
		Subject: string(role) + "_1",
		Name:    "Test User",
		Email:   "user@fsp.local",
		Role:    role,
	}}
	issuer := identity.NewTokenIssuer("testsecret", time.Hour)
	carrier := auth.NewCarrier(client, "authToken", time.Hour, false)
	service := auth.NewService(logger, provider, issuer, carrier, noopSessionRepo{}, notifier)
	return &shellFixture{
		shell:    dashboard.NewShell(logger, service, notifier),
		service:  service,
		notifier: notifier,
	}
}

func (fx *shellFixture) login(t *testing.T, role identity.Role) (*http.Cookie, string) {
	t.Helper()
	res := httptest.NewRecorder()
	result, err := fx.service.Login(context.Background(), res, auth.LoginInput{
		Identifier: "user",
		Password:   "pass",
		Role:       role,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	for _, c := range res.Result().Cookies() {
		if c.Name == "authToken" {
			return c, result.SessionID
		}
	}
	t.Fatal("no session cookie after login")
	return nil, ""
}

func requireHandler(fx *shellFixture, role identity.Role) (http.Handler, *shared.SessionContext) {
	var captured shared.SessionContext
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sc := shared.SessionFromContext(r.Context()); sc != nil {
			captured = *sc
		}
		w.WriteHeader(http.StatusOK)
	})
	return fx.shell.Require(role)(inner), &captured
}

func TestShellRedirectsUnauthenticatedToLogin(t *testing.T) {
	fx := newShellFixture(t, identity.RoleStudent)
	handler, _ := requireHandler(fx, identity.RoleStudent)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/student/dashboard", nil))

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/student/login" {
		t.Fatalf("expected login redirect, got %q", loc)
	}
}

func TestShellAdmitsMatchingRole(t *testing.T) {
	fx := newShellFixture(t, identity.RoleTeacher)
	cookie, sid := fx.login(t, identity.RoleTeacher)
	handler, captured := requireHandler(fx, identity.RoleTeacher)

	req := httptest.NewRequest(http.MethodGet, "/teacher/dashboard", nil)
	req.AddCookie(cookie)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if captured.Role != "teacher" || captured.SessionID != sid {
		t.Fatalf("unexpected session context %+v", captured)
	}
}

func TestShellRedirectsRoleMismatchToForbidden(t *testing.T) {
	fx := newShellFixture(t, identity.RoleStudent)
	cookie, _ := fx.login(t, identity.RoleStudent)
	handler, _ := requireHandler(fx, identity.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(cookie)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/forbidden" {
		t.Fatalf("expected forbidden redirect, got %q", loc)
	}
}

func TestShellHonoursRevocationNotifications(t *testing.T) {
	fx := newShellFixture(t, identity.RoleStudent)
	cookie, sid := fx.login(t, identity.RoleStudent)
	handler, _ := requireHandler(fx, identity.RoleStudent)

	fx.notifier.Publish(identity.Event{Kind: identity.EventSignOut, SessionID: sid})

	req := httptest.NewRequest(http.MethodGet, "/student/dashboard", nil)
	req.AddCookie(cookie)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected revoked session to be rejected, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/student/login" {
		t.Fatalf("expected login redirect, got %q", loc)
	}

	// A fresh sign-in for the same sid lifts the revocation.
	fx.notifier.Publish(identity.Event{Kind: identity.EventSignIn, SessionID: sid})
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected re-admission after sign-in event, got %d", res.Code)
	}
}
