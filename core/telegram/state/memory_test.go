package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const stateAwaiting State = "awaiting_word"

func TestMemoryManagerTransitions(t *testing.T) {
	m := NewMemoryManager(0)
	require.Equal(t, StateIdle, m.GetState(1))
	require.False(t, m.InProgress(1))

	m.SetState(1, stateAwaiting)
	require.True(t, m.InProgress(1))
	require.False(t, m.InProgress(2))

	m.ClearState(1)
	require.Equal(t, StateIdle, m.GetState(1))

	m.SetState(1, stateAwaiting)
	m.SetState(1, StateIdle)
	require.False(t, m.InProgress(1))
}

func TestMemoryManagerExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := NewMemoryManager(time.Minute).(*memoryManager)
	m.now = func() time.Time { return now }

	m.SetState(7, stateAwaiting)
	now = now.Add(59 * time.Second)
	require.True(t, m.InProgress(7))

	now = now.Add(2 * time.Second)
	require.False(t, m.InProgress(7))
	require.Empty(t, m.users)
}
