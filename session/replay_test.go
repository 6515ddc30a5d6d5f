package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayWindowAcceptsMonotonicSequence(t *testing.T) {
	w := NewReplayWindow(16)
	for seq := uint64(1); seq <= 10; seq++ {
		require.NoError(t, w.Accept(seq))
	}
}

func TestReplayWindowRejectsExactRepeat(t *testing.T) {
	w := NewReplayWindow(16)
	require.NoError(t, w.Accept(5))
	assert.Error(t, w.Accept(5))
}

func TestReplayWindowRejectsTooOld(t *testing.T) {
	w := NewReplayWindow(8)
	require.NoError(t, w.Accept(100))
	assert.Error(t, w.Accept(90)) // 10 behind an 8-wide window
}

func TestReplayWindowAcceptsOutOfOrderWithinWindow(t *testing.T) {
	w := NewReplayWindow(16)
	require.NoError(t, w.Accept(10))
	require.NoError(t, w.Accept(8))
	require.NoError(t, w.Accept(9))
	assert.Error(t, w.Accept(8))
}
