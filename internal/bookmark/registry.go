package bookmark

import (
	"sync"

	"github.com/jobera/job-feed/internal/activity"
)

// Registry hands out one Observer per signed-in user so concurrent requests
// from the same user share a single subscription and membership set.
type Registry struct {
	store *activity.Store

	mu        sync.Mutex
	observers map[string]*Observer
	closed    bool
}

func NewRegistry(store *activity.Store) *Registry {
	return &Registry{store: store, observers: make(map[string]*Observer)}
}

// ForUser returns the live observer for userID, creating and binding it on
// first use. Returns nil for the empty id and after Close.
func (r *Registry) ForUser(userID string) *Observer {
	if userID == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	if o, ok := r.observers[userID]; ok {
		return o
	}
	o := NewObserver(r.store)
	o.SetUser(userID)
	r.observers[userID] = o
	return o
}

func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	observers := r.observers
	r.observers = make(map[string]*Observer)
	r.mu.Unlock()
	for _, o := range observers {
		o.Close()
	}
}
