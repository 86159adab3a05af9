package auth_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/fsp-portal/fsp-portal/internal/auth"
	"github.com/fsp-portal/fsp-portal/internal/identity"
	"github.com/fsp-portal/fsp-portal/internal/shared"
	"github.com/fsp-portal/fsp-portal/internal/view"
)

func newRouter(t *testing.T, provider identity.Provider) chi.Router {
	t.Helper()
	fx := newServiceFixture(t, provider)
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	handler := auth.NewHandler(slog.New(slog.DiscardHandler), fx.service, templates, shared.NewCSRFManager("csrfsecret", false))

	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func postLogin(t *testing.T, router chi.Router, path, identifier, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{}
	form.Set("identifier", identifier)
	form.Set("password", password)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestLoginPageRendersForm(t *testing.T) {
	router := newRouter(t, studentProvider())

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/student/login", nil))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	body := res.Body.String()
	if !strings.Contains(body, "<form") || !strings.Contains(body, "Student ID") {
		t.Fatal("expected student login form")
	}
}

func TestLoginSuccessRedirectsToDashboard(t *testing.T) {
	router := newRouter(t, studentProvider())

	res := postLogin(t, router, "/student/login", "FSP2026001", "pass12345")
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/student/dashboard" {
		t.Fatalf("expected dashboard redirect, got %q", loc)
	}
}

func TestLoginFailuresShareOneMessage(t *testing.T) {
	router := newRouter(t, studentProvider())

	cases := []struct {
		name       string
		path       string
		identifier string
		password   string
	}{
		{"unknown identifier", "/student/login", "FSP9999999", "pass12345"},
		{"wrong password", "/student/login", "FSP2026001", "wrong"},
		{"wrong role portal", "/teacher/login", "FSP2026001", "pass12345"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := postLogin(t, router, tc.path, tc.identifier, tc.password)
			if res.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", res.Code)
			}
			if !strings.Contains(res.Body.String(), "Invalid credentials") {
				t.Fatal("expected the uniform failure message")
			}
			for _, c := range res.Result().Cookies() {
				if c.Name == "authToken" {
					t.Fatal("expected no session cookie on failure")
				}
			}
		})
	}
}

func TestLoginValidatesRequiredFields(t *testing.T) {
	router := newRouter(t, studentProvider())

	res := postLogin(t, router, "/student/login", "", "")
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "This field is required") {
		t.Fatal("expected field validation errors")
	}
}

func TestLogoutRedirectsHome(t *testing.T) {
	router := newRouter(t, studentProvider())

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/logout", nil))
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect home, got %q", loc)
	}
}
