package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyotee/LSFTP/cryptosuite"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	ks, err := DeriveInitialKeys([]byte("shared-secret"), []byte("transcript"))
	require.NoError(t, err)
	return New(uuid.New(), cryptosuite.Default(), DefaultConfig(), ks, nil)
}

func TestStateMachineAllowsHappyPath(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Transition(StateHandshaking))
	require.NoError(t, s.Transition(StateReady))
	require.NoError(t, s.Transition(StateTransferring))
	require.NoError(t, s.Transition(StateReady))
	require.NoError(t, s.Transition(StateClosed))
	assert.Equal(t, StateClosed, s.State())
}

func TestStateMachineRejectsIllegalTransition(t *testing.T) {
	s := newTestSession(t)
	// Cannot jump straight to Ready without handshaking first.
	err := s.Transition(StateReady)
	assert.Error(t, err)
	assert.Equal(t, StateInitial, s.State())
}

func TestForceCloseBypassesStateMachine(t *testing.T) {
	s := newTestSession(t)
	s.ForceClose()
	assert.Equal(t, StateClosed, s.State())
}

func TestValidateIncomingRejectsReplay(t *testing.T) {
	s := newTestSession(t)
	now := uint64(time.Now().Unix())
	require.NoError(t, s.ValidateIncoming(1, now))
	assert.Error(t, s.ValidateIncoming(1, now))
}

func TestValidateIncomingRejectsTimestampSkew(t *testing.T) {
	s := newTestSession(t)
	farFuture := uint64(time.Now().Add(time.Hour).Unix())
	assert.Error(t, s.ValidateIncoming(1, farFuture))
}

func TestConsecutiveErrorsTransitionToError(t *testing.T) {
	s := newTestSession(t)
	s.config.ReplayErrorThreshold = 3
	now := uint64(time.Now().Unix())
	require.NoError(t, s.ValidateIncoming(1, now))
	_ = s.ValidateIncoming(1, now) // replay #1
	_ = s.ValidateIncoming(1, now) // replay #2
	_ = s.ValidateIncoming(1, now) // replay #3 crosses threshold
	assert.Equal(t, StateError, s.State())
}

func TestMissedHeartbeatsCrossThreshold(t *testing.T) {
	s := newTestSession(t)
	s.config.MaxMissedHeartbeats = 2
	assert.False(t, s.NoteMissedHeartbeat())
	assert.True(t, s.NoteMissedHeartbeat())
}

func TestRecordHeartbeatReceivedResetsMissedCount(t *testing.T) {
	s := newTestSession(t)
	s.config.MaxMissedHeartbeats = 2
	s.NoteMissedHeartbeat()
	s.RecordHeartbeatReceived()
	assert.False(t, s.NoteMissedHeartbeat())
}
