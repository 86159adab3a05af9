package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fsp-portal/fsp-portal/internal/shared"
)

// Claims is the signed payload of a session token. Role travels inside the
// signature, so a verified token is also a verified role assertion.
type Claims struct {
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Role      Role   `json:"role"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Identity reconstructs the identity asserted by the claims.
func (c Claims) Identity() Identity {
	return Identity{
		Subject: c.Subject,
		Name:    c.Name,
		Email:   c.Email,
		Role:    c.Role,
	}
}

// TokenIssuer signs and verifies session tokens with an HMAC secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer constructs a TokenIssuer. The TTL bounds the token's exp
// claim; the provider-defined default is one day.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// TTL exposes the configured token lifetime.
func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

// Issue signs a token asserting the identity and session ID.
func (i *TokenIssuer) Issue(id Identity, sessionID string, now time.Time) (string, error) {
	claims := Claims{
		Name:      id.Name,
		Email:     id.Email,
		Role:      id.Role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("identity: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a signed token. Expired tokens return
// shared.ErrTokenExpired; every other failure returns shared.ErrNoSession so
// callers treat malformed tokens as an absent session.
func (i *TokenIssuer) Verify(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("identity: unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, shared.ErrTokenExpired
		}
		return Claims{}, shared.ErrNoSession
	}
	if !claims.Role.Valid() {
		return Claims{}, shared.ErrNoSession
	}
	return claims, nil
}

// Peek extracts claims without validating expiry. The signature is still
// checked; Peek exists so logout and the session reaper can recover the sid
// of an already-expired token for cleanup.
func (i *TokenIssuer) Peek(raw string) (Claims, bool) {
	var claims Claims
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	_, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("identity: unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	return claims, err == nil
}
