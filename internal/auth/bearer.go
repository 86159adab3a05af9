package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fsp-portal/fsp-portal/internal/identity"
	"github.com/fsp-portal/fsp-portal/internal/platform/httpx"
)

// SecureInfoHandler is a demonstration protected data endpoint: it expects a
// bearer token, verifies it cryptographically, and additionally requires the
// admin role claim before returning data.
type SecureInfoHandler struct {
	Issuer *identity.TokenIssuer
}

// ServeHTTP implements GET /api/secure-info.
func (h *SecureInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no token provided")
		return
	}

	claims, err := h.Issuer.Verify(token)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
		return
	}

	if claims.Role != identity.RoleAdmin {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin role required")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":   fmt.Sprintf("Hello %s, this is secure information for role: %s.", claims.Name, claims.Role),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"adminData": "This data is only visible to admins.",
	})
}
