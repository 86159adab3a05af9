package auth

import (
	"log/slog"
	"net/http"
	"strings"
)

// Guard is the edge route guard: a presence-only check of the session cookie
// on protected path prefixes. It redirects unauthenticated requests to the
// home page before any page logic runs, and deliberately does not verify the
// token's signature or role. That belongs to the dashboard shell and API
// boundaries, which hold the verification keys.
type Guard struct {
	CookieName string
	Prefixes   []string
	Logger     *slog.Logger
}

// DefaultProtectedPrefixes are the dashboard roots requiring a session.
var DefaultProtectedPrefixes = []string{
	"/admin/dashboard",
	"/teacher/dashboard",
	"/student/dashboard",
}

// Middleware intercepts requests to the protected prefixes. Fail-closed: any
// request without the cookie is redirected, never passed through.
func (g Guard) Middleware(next http.Handler) http.Handler {
	prefixes := g.Prefixes
	if len(prefixes) == 0 {
		prefixes = DefaultProtectedPrefixes
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.protected(prefixes, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		cookie, err := r.Cookie(g.CookieName)
		if err != nil || cookie.Value == "" {
			if g.Logger != nil {
				g.Logger.Debug("route guard redirect", slog.String("path", r.URL.Path))
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g Guard) protected(prefixes []string, path string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
