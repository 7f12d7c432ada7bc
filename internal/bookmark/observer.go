// Package bookmark maintains the live set of job ids bookmarked by one
// user. Every surface that renders job cards for that user consults the
// same observer, so a toggle made on one screen shows up on all of them as
// soon as the subscription ticks.
package bookmark

import (
	"context"
	"sync"

	"github.com/jobera/job-feed/internal/activity"
	"github.com/jobera/job-feed/internal/auth"
)

// Observer tracks bookmarked job ids for the identity it is bound to. The
// id set is the only shared mutable state in the feed path; it is mutated
// only by the subscription callback and by Toggle's optimistic/revert pair.
type Observer struct {
	store *activity.Store

	mu     sync.Mutex
	ids    map[string]struct{}
	userID string
	// gen increments on every identity change; callbacks from a previous
	// subscription carry a stale gen and are dropped instead of mutating
	// state that no longer belongs to them.
	gen    int
	unsub  func()
	closed bool

	watchers  map[int]func()
	nextWatch int
}

func NewObserver(store *activity.Store) *Observer {
	return &Observer{
		store:    store,
		ids:      make(map[string]struct{}),
		watchers: make(map[int]func()),
	}
}

// Watch registers fn to run after every change to the membership set, so
// live surfaces can re-render rows instead of serving a stale bookmark
// flag. The returned cancel removes the registration; it is idempotent.
func (o *Observer) Watch(fn func()) (cancel func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return func() {}
	}
	id := o.nextWatch
	o.nextWatch++
	o.watchers[id] = fn
	return func() {
		o.mu.Lock()
		delete(o.watchers, id)
		o.mu.Unlock()
	}
}

// watchersLocked snapshots the registered listeners when changed is true.
// Callers invoke them after releasing the mutex; a listener may call back
// into IsBookmarked.
func (o *Observer) watchersLocked(changed bool) []func() {
	if !changed || len(o.watchers) == 0 {
		return nil
	}
	out := make([]func(), 0, len(o.watchers))
	for _, fn := range o.watchers {
		out = append(out, fn)
	}
	return out
}

// FollowSession re-binds the observer whenever the session identity
// changes, including sign-out. The returned cancel stops following; it does
// not close the observer.
func (o *Observer) FollowSession(s *auth.Session) (cancel func()) {
	return s.Watch(o.SetUser)
}

// SetUser rebinds the observer to a user identity. An empty id means signed
// out: the set empties and no subscription is held.
func (o *Observer) SetUser(userID string) {
	o.mu.Lock()
	if o.closed || o.userID == userID {
		o.mu.Unlock()
		return
	}
	o.gen++
	gen := o.gen
	o.userID = userID
	hadIDs := len(o.ids) > 0
	o.ids = make(map[string]struct{})
	prevUnsub := o.unsub
	o.unsub = nil
	watchers := o.watchersLocked(hadIDs)
	o.mu.Unlock()

	for _, fn := range watchers {
		fn()
	}
	if prevUnsub != nil {
		prevUnsub()
	}
	if userID == "" {
		return
	}

	cancel, err := o.store.WatchBookmarked(userID, func(rels []activity.BookmarkedJob, err error) {
		o.applySnapshot(gen, rels, err)
	})
	if err != nil {
		return
	}
	o.mu.Lock()
	if o.closed || o.gen != gen {
		o.mu.Unlock()
		cancel()
		return
	}
	o.unsub = cancel
	o.mu.Unlock()
}

// applySnapshot rebuilds the full id set from the relation snapshot. No
// incremental patching: bookmark counts are small and a rebuild cannot
// drift.
func (o *Observer) applySnapshot(gen int, rels []activity.BookmarkedJob, err error) {
	o.mu.Lock()
	if o.closed || o.gen != gen || err != nil {
		o.mu.Unlock()
		return
	}
	next := make(map[string]struct{}, len(rels))
	for _, rel := range rels {
		if rel.JobID != "" {
			next[rel.JobID] = struct{}{}
		}
	}
	changed := len(next) != len(o.ids)
	if !changed {
		for id := range next {
			if _, ok := o.ids[id]; !ok {
				changed = true
				break
			}
		}
	}
	o.ids = next
	watchers := o.watchersLocked(changed)
	o.mu.Unlock()
	for _, fn := range watchers {
		fn()
	}
}

// IsBookmarked is a pure membership lookup.
func (o *Observer) IsBookmarked(jobID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.ids[jobID]
	return ok
}

// BookmarkedIDs returns a copy of the current membership set.
func (o *Observer) BookmarkedIDs() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.ids))
	for id := range o.ids {
		out = append(out, id)
	}
	return out
}

// Toggle sets or clears a bookmark, updating the local set optimistically
// before the write and reverting it if the write fails. Signed out it is a
// no-op. The user sees a failed toggle snap back and may retry; there is no
// automatic retry queue.
func (o *Observer) Toggle(ctx context.Context, jobID string, next bool) error {
	o.mu.Lock()
	if o.closed || o.userID == "" {
		o.mu.Unlock()
		return nil
	}
	gen := o.gen
	userID := o.userID
	_, prev := o.ids[jobID]
	o.mu.Unlock()

	t := &toggle{
		jobID: jobID,
		next:  next,
		prev:  prev,
		apply: func(id string, marked bool) { o.setMembership(gen, id, marked) },
	}
	return t.run(ctx, func(ctx context.Context, id string, marked bool) error {
		if marked {
			return o.store.Bookmark(ctx, userID, id)
		}
		return o.store.Unbookmark(ctx, userID, id)
	})
}

// setMembership mutates the set only while gen is still the active
// generation, so a revert racing an identity change cannot resurrect state.
func (o *Observer) setMembership(gen int, jobID string, marked bool) {
	o.mu.Lock()
	if o.closed || o.gen != gen {
		o.mu.Unlock()
		return
	}
	_, had := o.ids[jobID]
	if marked {
		o.ids[jobID] = struct{}{}
	} else {
		delete(o.ids, jobID)
	}
	watchers := o.watchersLocked(had != marked)
	o.mu.Unlock()
	for _, fn := range watchers {
		fn()
	}
}

// Close tears the observer down. Idempotent, and callbacks arriving after
// Close are dropped.
func (o *Observer) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.gen++
	o.ids = make(map[string]struct{})
	o.watchers = make(map[int]func())
	unsub := o.unsub
	o.unsub = nil
	o.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}
