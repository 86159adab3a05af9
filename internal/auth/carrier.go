package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fsp-portal/fsp-portal/internal/identity"
	"github.com/fsp-portal/fsp-portal/internal/shared"
)

// SessionRecord is the server-side half of the session carrier, stored in
// Redis keyed by the token's sid claim.
type SessionRecord struct {
	Subject   string        `json:"subject"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Role      identity.Role `json:"role"`
	IssuedAt  time.Time     `json:"issued_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// Carrier owns both representations of a session: the authToken cookie and
// the Redis record. They are written together at login and removed together
// at logout; any divergence between them reads as no session.
type Carrier struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewCarrier constructs a Carrier.
func NewCarrier(client *redis.Client, cookieName string, ttl time.Duration, secure bool) *Carrier {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Carrier{client: client, cookieName: cookieName, ttl: ttl, secure: secure}
}

// CookieName returns the session cookie identifier.
func (c *Carrier) CookieName() string { return c.cookieName }

// TTL exposes the configured session lifetime.
func (c *Carrier) TTL() time.Duration { return c.ttl }

// Activate persists the session record and sets the cookie. The record is
// written first so a storage failure leaves no partial state: the cookie is
// only set once the record exists.
func (c *Carrier) Activate(ctx context.Context, w http.ResponseWriter, sessionID, token string, rec SessionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(sessionID), payload, c.ttl).Err(); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear removes both representations. The cookie is expired regardless of
// whether the record delete succeeds, so a store outage cannot leave the
// browser looking logged in.
func (c *Carrier) Clear(ctx context.Context, w http.ResponseWriter, sessionID string) error {
	var storeErr error
	if sessionID != "" {
		if err := c.client.Del(ctx, c.key(sessionID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			storeErr = err
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return storeErr
}

// Lookup fetches the session record for a sid. A missing record returns
// shared.ErrNoSession; an expired one returns shared.ErrTokenExpired.
func (c *Carrier) Lookup(ctx context.Context, sessionID string) (*SessionRecord, error) {
	if sessionID == "" {
		return nil, shared.ErrNoSession
	}
	payload, err := c.client.Get(ctx, c.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrNoSession
		}
		return nil, err
	}
	var rec SessionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, shared.ErrNoSession
	}
	if time.Now().After(rec.ExpiresAt) {
		return nil, shared.ErrTokenExpired
	}
	return &rec, nil
}

// ReadToken extracts the raw session token from the request cookie.
func (c *Carrier) ReadToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.cookieName)
	if err != nil || cookie.Value == "" {
		return "", shared.ErrNoSession
	}
	return cookie.Value, nil
}

func (c *Carrier) key(sessionID string) string {
	return "session:" + sessionID
}
