package changefeed

import (
	"sync"
	"time"
)

// Scope owns a group of subscriptions and closes them together.
type Scope struct {
	mu     sync.Mutex
	subs   []*Subscription
	closed bool
	done   chan struct{}
}

func NewScope() *Scope {
	return &Scope{done: make(chan struct{})}
}

// Add hands ownership of sub to the scope. A sub added after Close is closed
// immediately.
func (sc *Scope) Add(sub *Subscription) {
	if sub == nil {
		return
	}
	sc.mu.Lock()
	if sc.closed {
		sc.mu.Unlock()
		sub.Close()
		return
	}
	sc.subs = append(sc.subs, sub)
	sc.mu.Unlock()
}

func (sc *Scope) Close() {
	sc.mu.Lock()
	if sc.closed {
		sc.mu.Unlock()
		return
	}
	sc.closed = true
	subs := sc.subs
	sc.subs = nil
	close(sc.done)
	sc.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

// Done is closed when the scope is closed.
func (sc *Scope) Done() <-chan struct{} {
	return sc.done
}

func (sc *Scope) Len() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.subs)
}

// Registry maps session identifiers to scopes. A scope registered with an
// expiry is released by Prune once that time has passed.
type Registry struct {
	mu      sync.Mutex
	scopes  map[string]*Scope
	expires map[string]time.Time
}

func NewRegistry() *Registry {
	return &Registry{scopes: map[string]*Scope{}, expires: map[string]time.Time{}}
}

func (r *Registry) Scope(key string) *Scope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scopeLocked(key)
}

// ScopeUntil is Scope for a session that ends at expiresAt. A zero time
// leaves the scope to Release alone.
func (r *Registry) ScopeUntil(key string, expiresAt time.Time) *Scope {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !expiresAt.IsZero() && expiresAt.After(r.expires[key]) {
		r.expires[key] = expiresAt
	}
	return r.scopeLocked(key)
}

func (r *Registry) scopeLocked(key string) *Scope {
	sc, ok := r.scopes[key]
	if !ok {
		sc = NewScope()
		r.scopes[key] = sc
	}
	return sc
}

// Release closes and forgets the scope for key. Releasing an unknown key is a
// no-op.
func (r *Registry) Release(key string) {
	r.mu.Lock()
	sc, ok := r.scopes[key]
	delete(r.scopes, key)
	delete(r.expires, key)
	r.mu.Unlock()
	if ok {
		sc.Close()
	}
}

// Prune releases every scope whose session ended before now and returns how
// many were released.
func (r *Registry) Prune(now time.Time) int {
	r.mu.Lock()
	var ended []*Scope
	for key, at := range r.expires {
		if !at.Before(now) {
			continue
		}
		if sc, ok := r.scopes[key]; ok {
			ended = append(ended, sc)
		}
		delete(r.scopes, key)
		delete(r.expires, key)
	}
	r.mu.Unlock()
	for _, sc := range ended {
		sc.Close()
	}
	return len(ended)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scopes)
}

// ReleaseOn releases the scope named by key(evt) for every event matching
// filter, including events bridged from other instances. Events for which
// key returns "" are ignored.
func (r *Registry) ReleaseOn(hub *Hub, filter Filter, key func(Event) string) *Subscription {
	return hub.Subscribe(filter, func(evt Event) {
		if k := key(evt); k != "" {
			r.Release(k)
		}
	})
}
