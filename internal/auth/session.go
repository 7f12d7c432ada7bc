// Package auth tracks the signed-in user identity. The identity is nullable
// and observable: components that key state off the current user (the
// bookmark observer, the notification watcher) follow it through Watch.
package auth

import "sync"

// Session holds the current user identity for one client scope. The zero
// identity means signed out.
type Session struct {
	mu       sync.Mutex
	userID   string
	watchers map[int]func(userID string)
	nextID   int
}

func NewSession() *Session {
	return &Session{watchers: make(map[int]func(string))}
}

// CurrentUserID returns the signed-in user id, and whether one is signed in.
func (s *Session) CurrentUserID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.userID != ""
}

// SignIn sets the identity and notifies watchers.
func (s *Session) SignIn(userID string) {
	s.setUser(userID)
}

// SignOut clears the identity and notifies watchers with "".
func (s *Session) SignOut() {
	s.setUser("")
}

// Watch registers fn for identity changes and invokes it immediately with
// the current identity. The returned cancel is idempotent.
func (s *Session) Watch(fn func(userID string)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	current := s.userID
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) setUser(userID string) {
	s.mu.Lock()
	if s.userID == userID {
		s.mu.Unlock()
		return
	}
	s.userID = userID
	fns := make([]func(string), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(userID)
	}
}
