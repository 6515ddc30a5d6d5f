package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyotee/LSFTP/cryptosuite"
)

func TestManagerCreateGetRemove(t *testing.T) {
	m := NewManager(nil)
	ks, err := DeriveInitialKeys([]byte("secret"), []byte("transcript"))
	require.NoError(t, err)

	sess := m.Create(cryptosuite.Default(), DefaultConfig(), ks)
	assert.Equal(t, 1, m.Count())

	got, ok := m.Get(sess.ID())
	require.True(t, ok)
	assert.Equal(t, sess, got)

	m.Remove(sess.ID())
	assert.Equal(t, 0, m.Count())
	_, ok = m.Get(sess.ID())
	assert.False(t, ok)
}

func TestSweepHeartbeatsTimesOutIdleSessions(t *testing.T) {
	m := NewManager(nil)
	ks, err := DeriveInitialKeys([]byte("secret"), []byte("transcript"))
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.HeartbeatInterval = time.Nanosecond
	cfg.MaxMissedHeartbeats = 1
	sess := m.Create(cryptosuite.Default(), cfg, ks)
	time.Sleep(time.Millisecond)

	timedOut := m.SweepHeartbeats()
	require.Len(t, timedOut, 1)
	assert.Equal(t, sess.ID(), timedOut[0].ID())
	assert.Equal(t, StateError, sess.State())
}
