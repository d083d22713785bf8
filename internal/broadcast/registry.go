package broadcast

import (
	"sync"

	"github.com/google/uuid"
)

// Registry is the concurrent-safe set of live subscribers. Iteration works on
// a snapshot, so callbacks may unregister (including themselves) without
// deadlocking or skipping entries.
type Registry struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*Subscriber
}

func NewRegistry() *Registry {
	return &Registry{subs: make(map[uuid.UUID]*Subscriber)}
}

func (r *Registry) Register(sub *Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.ID()] = sub
}

// Unregister removes a subscriber. Removing an unknown id is a no-op.
func (r *Registry) Unregister(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, id)
}

// Len returns the current subscriber count.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// ForEach invokes fn for every subscriber present when the iteration started.
func (r *Registry) ForEach(fn func(*Subscriber)) {
	r.mu.RLock()
	snapshot := make([]*Subscriber, 0, len(r.subs))
	for _, sub := range r.subs {
		snapshot = append(snapshot, sub)
	}
	r.mu.RUnlock()

	for _, sub := range snapshot {
		fn(sub)
	}
}

// drain removes and returns every subscriber.
func (r *Registry) drain() []*Subscriber {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Subscriber, 0, len(r.subs))
	for id, sub := range r.subs {
		out = append(out, sub)
		delete(r.subs, id)
	}
	return out
}
