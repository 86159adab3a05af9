package shared

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
)

const (
	// CSRFCookieName is the double-submit cookie holding the signed token.
	CSRFCookieName = "csrf_token"
	// CSRFFormField is the form field name carrying the CSRF token.
	CSRFFormField = "csrf_token"
	// CSRFHeaderName is the header alternative for non-form submissions.
	CSRFHeaderName = "X-CSRF-Token"
)

// CSRFManager issues and verifies HMAC-signed double-submit tokens. Login
// pages have no server session yet, so the token is bound to a random nonce
// signed with the configured secret rather than to a session ID.
type CSRFManager struct {
	secret []byte
	secure bool
}

// NewCSRFManager returns a CSRFManager using the provided secret key.
func NewCSRFManager(secret string, secure bool) *CSRFManager {
	return &CSRFManager{secret: []byte(secret), secure: secure}
}

// EnsureToken returns the request's CSRF token, minting and setting the
// cookie when absent.
func (m *CSRFManager) EnsureToken(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(CSRFCookieName); err == nil && m.verify(cookie.Value) {
		return cookie.Value, nil
	}
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	token := m.sign(nonce)
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// VerifyRequest compares the submitted token against the cookie copy.
func (m *CSRFManager) VerifyRequest(r *http.Request) error {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return ErrCSRFTokenMissing
	}
	submitted := r.PostFormValue(CSRFFormField)
	if submitted == "" {
		submitted = r.Header.Get(CSRFHeaderName)
	}
	if submitted == "" {
		return ErrCSRFTokenMissing
	}
	if !m.verify(cookie.Value) || !hmac.Equal([]byte(cookie.Value), []byte(submitted)) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

func (m *CSRFManager) sign(nonce []byte) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write(nonce)
	return base64.RawURLEncoding.EncodeToString(nonce) + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (m *CSRFManager) verify(token string) bool {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return false
	}
	nonce, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, m.secret)
	mac.Write(nonce)
	return hmac.Equal(mac.Sum(nil), sig)
}
