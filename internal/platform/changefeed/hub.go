// Package changefeed delivers document change events to live observers.
//
// Every Subscribe returns a *Subscription that must be closed by its owner.
// Close is idempotent, and once it has returned no further callback starts
// for that subscription. A callback already running on a publishing goroutine
// may still finish after Close returns, so callbacks must stay safe to run
// against an owner that has shut down. Scope and Registry group subscriptions
// so a session or connection can release all of its observers at once.
package changefeed

import (
	"sync"
	"sync/atomic"
	"time"
)

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type Event struct {
	Collection string            `json:"collection"`
	DocumentID string            `json:"documentId"`
	Op         Op                `json:"op"`
	Attrs      map[string]string `json:"attrs,omitempty"`
	At         time.Time         `json:"at"`
	Origin     string            `json:"origin,omitempty"`
}

// Filter selects events. An empty Collection matches every collection and an
// empty DocumentID matches every document of the collection.
type Filter struct {
	Collection string
	DocumentID string
}

func (f Filter) Match(evt Event) bool {
	if f.Collection != "" && f.Collection != evt.Collection {
		return false
	}
	if f.DocumentID != "" && f.DocumentID != evt.DocumentID {
		return false
	}
	return true
}

// Publisher is what write paths depend on.
type Publisher interface {
	Publish(evt Event)
}

type Hub struct {
	mu   sync.RWMutex
	next uint64
	subs map[uint64]*Subscription
}

func NewHub() *Hub {
	return &Hub{subs: map[uint64]*Subscription{}}
}

// Subscribe registers fn for events matching filter. Callbacks run on the
// publishing goroutine and must not block.
func (h *Hub) Subscribe(filter Filter, fn func(Event)) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	sub := &Subscription{hub: h, id: h.next, filter: filter, fn: fn}
	h.subs[sub.id] = sub
	return sub
}

func (h *Hub) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	h.mu.RLock()
	matched := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		if sub.filter.Match(evt) {
			matched = append(matched, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range matched {
		sub.deliver(evt)
	}
}

// Len reports the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

type Subscription struct {
	hub    *Hub
	id     uint64
	filter Filter
	fn     func(Event)

	deliverMu  sync.Mutex
	delivering atomic.Bool
	closed     atomic.Bool
	once       sync.Once
}

// Close stops delivery. It does not wait for a callback that is already
// running: that callback may be the caller itself, and the two cases cannot be
// told apart. Delivery that has taken the lock but not yet entered the
// callback is waited out, so no callback starts once Close has returned.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.closed.Store(true)
		s.hub.remove(s.id)
		if !s.delivering.Load() {
			s.deliverMu.Lock()
			s.deliverMu.Unlock()
		}
	})
}

func (s *Subscription) Closed() bool {
	return s == nil || s.closed.Load()
}

func (s *Subscription) deliver(evt Event) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if s.closed.Load() || s.fn == nil {
		return
	}
	s.delivering.Store(true)
	defer s.delivering.Store(false)
	s.fn(evt)
}
