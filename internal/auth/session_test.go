package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionSignInAndOut(t *testing.T) {
	s := NewSession()
	_, ok := s.CurrentUserID()
	assert.False(t, ok)

	s.SignIn("u1")
	id, ok := s.CurrentUserID()
	assert.True(t, ok)
	assert.Equal(t, "u1", id)

	s.SignOut()
	_, ok = s.CurrentUserID()
	assert.False(t, ok)
}

func TestWatchFiresImmediatelyAndOnChange(t *testing.T) {
	s := NewSession()
	s.SignIn("u1")

	var seen []string
	cancel := s.Watch(func(userID string) { seen = append(seen, userID) })
	assert.Equal(t, []string{"u1"}, seen, "watcher sees the current identity right away")

	s.SignIn("u2")
	s.SignIn("u2") // unchanged identity does not refire
	s.SignOut()
	assert.Equal(t, []string{"u1", "u2", ""}, seen)

	cancel()
	cancel()
	s.SignIn("u3")
	assert.Equal(t, []string{"u1", "u2", ""}, seen, "cancelled watcher stays quiet")
}
