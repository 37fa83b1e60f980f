package identity

import "sync"

// Watcher tracks the authenticated shopper for the session and fans out
// identity changes to subscribers. An empty user ID means anonymous.
// Transitions: ""→id is a login, id→"" a logout, id→other a user switch.
type Watcher struct {
	mu      sync.Mutex
	current string
	subs    []func(userID string)
}

// NewWatcher creates a watcher in the anonymous state.
func NewWatcher() *Watcher {
	return &Watcher{}
}

// Current returns the current user ID, or "" when anonymous.
func (w *Watcher) Current() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Set updates the current identity. Subscribers are notified only when the
// identity actually changed, outside the watcher's lock.
func (w *Watcher) Set(userID string) {
	w.mu.Lock()
	if w.current == userID {
		w.mu.Unlock()
		return
	}
	w.current = userID
	subs := make([]func(string), len(w.subs))
	copy(subs, w.subs)
	w.mu.Unlock()

	for _, fn := range subs {
		fn(userID)
	}
}

// Subscribe registers a callback invoked on every identity change.
func (w *Watcher) Subscribe(fn func(userID string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subs = append(w.subs, fn)
}
