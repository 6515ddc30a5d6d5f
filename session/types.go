// Package session implements the protocol's connection state machine: the
// handshake, sequence/replay tracking, key rotation, and heartbeat
// liveness that sit between the wire codec and the file transfer engine.
package session

import "time"

// State is a session's position in its lifecycle state machine.
type State uint8

const (
	StateInitial State = iota
	StateHandshaking
	StateReady
	StateTransferring
	StateError
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateHandshaking:
		return "handshaking"
	case StateReady:
		return "ready"
	case StateTransferring:
		return "transferring"
	case StateError:
		return "error"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// validTransitions enumerates the state machine's edges. A transition not
// present here is rejected.
var validTransitions = map[State]map[State]bool{
	StateInitial:      {StateHandshaking: true, StateError: true, StateClosed: true},
	StateHandshaking:  {StateReady: true, StateError: true, StateClosed: true},
	StateReady:        {StateTransferring: true, StateError: true, StateClosed: true},
	StateTransferring: {StateReady: true, StateError: true, StateClosed: true},
	StateError:        {StateClosed: true},
	StateClosed:       {},
}

// Config holds the tunable timing and sizing constants governing a
// session. Zero-value fields are filled in by DefaultConfig.
type Config struct {
	ReplayWindowSize     uint64
	ReplayErrorThreshold int
	TimestampSkew        time.Duration
	KeyRotationInterval  time.Duration
	MaxBytesPerKey       uint64
	KeyOverlapWindow     time.Duration
	HeartbeatInterval    time.Duration
	MaxMissedHeartbeats  int
}

// DefaultConfig returns the protocol's default session timing constants.
func DefaultConfig() Config {
	return Config{
		ReplayWindowSize:     1024,
		ReplayErrorThreshold: 16,
		TimestampSkew:        5 * time.Minute,
		KeyRotationInterval:  300 * time.Second,
		MaxBytesPerKey:       1 << 34,
		KeyOverlapWindow:     5 * time.Second,
		HeartbeatInterval:    60 * time.Second,
		MaxMissedHeartbeats:  3,
	}
}
