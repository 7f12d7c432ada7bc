package bookmark

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleRunConfirmed(t *testing.T) {
	var applied []bool
	tg := &toggle{
		jobID: "j1",
		next:  true,
		prev:  false,
		apply: func(id string, marked bool) { applied = append(applied, marked) },
	}

	err := tg.run(context.Background(), func(context.Context, string, bool) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, toggleConfirmed, tg.state)
	assert.Equal(t, []bool{true}, applied, "only the optimistic apply ran")
}

func TestToggleRunReverted(t *testing.T) {
	var applied []bool
	tg := &toggle{
		jobID: "j1",
		next:  false,
		prev:  true,
		apply: func(id string, marked bool) { applied = append(applied, marked) },
	}

	err := tg.run(context.Background(), func(context.Context, string, bool) error {
		return errors.New("backend down")
	})
	require.Error(t, err)
	assert.Equal(t, toggleReverted, tg.state)
	assert.Equal(t, []bool{false, true}, applied, "optimistic apply then revert to the captured previous state")
}
