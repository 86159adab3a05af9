package identity

import "sync"

// EventKind distinguishes identity-change notifications.
type EventKind int

const (
	// EventSignIn fires after a successful login.
	EventSignIn EventKind = iota
	// EventSignOut fires after a logout or a provider-side invalidation.
	EventSignOut
	// EventExpired fires when a session is detected past its expiry.
	EventExpired
)

// Event describes a change to the signed-in identity for a session.
type Event struct {
	Kind      EventKind
	SessionID string
	Identity  *Identity // nil for sign-out and expiry
}

// Notifier fans identity-change events out to subscribers. Callbacks are
// dispatched serially under the notifier's lock, so a subscriber never runs
// concurrently with itself and must not re-enter Subscribe or Publish.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

// NewNotifier constructs an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]func(Event))}
}

// Subscribe registers a callback and returns its unsubscribe handle.
func (n *Notifier) Subscribe(fn func(Event)) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Publish delivers the event to every current subscriber.
func (n *Notifier) Publish(ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, fn := range n.subs {
		fn(ev)
	}
}
