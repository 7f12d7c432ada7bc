package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Dana Kim", User{FullName: "Dana Kim", Email: "dana@example.com"}.DisplayName())
	assert.Equal(t, "dana", User{Email: "dana@example.com"}.DisplayName())
	assert.Equal(t, "Friend", User{}.DisplayName())
	assert.Equal(t, "Friend", User{Email: "@example.com"}.DisplayName())
}
