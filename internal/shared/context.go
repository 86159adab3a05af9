package shared

import "context"

// SessionContext is the single injected view of "who is logged in" handed to
// handlers below the dashboard shell. Components read identity from here
// rather than from cookies or ambient globals.
type SessionContext struct {
	Subject   string
	Name      string
	Email     string
	Role      string
	SessionID string
}

type sessionContextKey struct{}

// ContextWithSession stores the session context in ctx.
func ContextWithSession(ctx context.Context, sc *SessionContext) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sc)
}

// SessionFromContext extracts the session context, or nil when the request
// is unauthenticated.
func SessionFromContext(ctx context.Context) *SessionContext {
	sc, _ := ctx.Value(sessionContextKey{}).(*SessionContext)
	return sc
}
