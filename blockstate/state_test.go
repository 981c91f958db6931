package blockstate

import "testing"

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timtadh/ftl/errors"
)

func TestNewIsFree(t *testing.T) {
	tab := New(8)
	assert.Equal(t, 8, tab.Len())
	assert.Equal(t, 8, tab.Count(FREE))
	s, err := tab.Get(7)
	require.NoError(t, err)
	assert.Equal(t, FREE, s)
}

func TestLifecycle(t *testing.T) {
	tab := New(2)
	require.NoError(t, tab.Transition(0, USED))
	require.NoError(t, tab.Transition(0, TRIMMED))
	require.NoError(t, tab.Transition(0, TRIMMED))
	require.NoError(t, tab.Transition(0, FREE))
	s, _ := tab.Get(0)
	assert.Equal(t, FREE, s)
}

func TestIllegal(t *testing.T) {
	cases := []struct {
		from, to State
	}{
		{FREE, TRIMMED},
		{FREE, FREE},
		{USED, FREE},
		{USED, USED},
		{TRIMMED, USED},
	}
	for _, c := range cases {
		tab := New(1)
		tab.states[0] = c.from
		err := tab.Transition(0, c.to)
		assert.True(t, errors.Is(err, errors.Invalid), "%v -> %v", c.from, c.to)
		s, _ := tab.Get(0)
		assert.Equal(t, c.from, s)
	}
}

func TestBadIsTerminal(t *testing.T) {
	for _, from := range []State{FREE, USED, TRIMMED} {
		tab := New(1)
		tab.states[0] = from
		require.NoError(t, tab.MarkBad(0))
		for _, to := range []State{FREE, USED, TRIMMED, BAD} {
			err := tab.Transition(0, to)
			assert.True(t, errors.Is(err, errors.BadBlock))
		}
		s, _ := tab.Get(0)
		assert.Equal(t, BAD, s)
	}
}

func TestOutOfRange(t *testing.T) {
	tab := New(4)
	_, err := tab.Get(4)
	assert.True(t, errors.Is(err, errors.Invalid))
	assert.True(t, errors.Is(tab.Transition(9, USED), errors.Invalid))
	assert.True(t, errors.Is(tab.MarkBad(4), errors.Invalid))
}

func TestString(t *testing.T) {
	assert.Equal(t, "TRIMMED", TRIMMED.String())
	assert.Equal(t, "UNKNOWN", State(42).String())
}
