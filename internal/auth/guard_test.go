package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fsp-portal/fsp-portal/internal/auth"
)

func guardedHandler(t *testing.T) (http.Handler, *bool) {
	t.Helper()
	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	g := auth.Guard{CookieName: "authToken"}
	return g.Middleware(next), &reached
}

func TestGuardRedirectsWithoutCookie(t *testing.T) {
	paths := []string{
		"/admin/dashboard",
		"/teacher/dashboard/batches",
		"/student/dashboard/attendance",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			handler, reached := guardedHandler(t)
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, path, nil))

			if *reached {
				t.Fatal("expected guard to block the request")
			}
			if res.Code != http.StatusSeeOther {
				t.Fatalf("expected 303, got %d", res.Code)
			}
			if loc := res.Header().Get("Location"); loc != "/" {
				t.Fatalf("expected redirect home, got %q", loc)
			}
		})
	}
}

func TestGuardPassesWithCookie(t *testing.T) {
	handler, reached := guardedHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/student/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "authToken", Value: "anything"})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if !*reached || res.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d reached=%v", res.Code, *reached)
	}
}

func TestGuardIgnoresPublicPaths(t *testing.T) {
	for _, path := range []string{"/", "/student/login", "/forbidden", "/student/dashboards"} {
		handler, reached := guardedHandler(t)
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, path, nil))
		if !*reached {
			t.Fatalf("expected %s to bypass the guard", path)
		}
	}
}
