package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iyotee/LSFTP/cryptosuite"
	"github.com/iyotee/LSFTP/errs"
	"github.com/iyotee/LSFTP/log"
)

// Session is one secured connection's state: its position in the
// lifecycle state machine, its negotiated suite, its per-direction
// sequence counters and replay guard, and its current key generation.
type Session struct {
	mu sync.Mutex

	id        uuid.UUID
	state     State
	config    Config
	suite     cryptosuite.Suite
	createdAt time.Time

	sendSeq uint64
	recvSeq uint64
	replay  *ReplayWindow
	keys    *KeySchedule

	consecutiveErrors int
	lastActivity      time.Time
	missedHeartbeats  int

	logger log.Logger
}

// New creates a session in StateInitial for the given negotiated suite and
// initial key material, derived once the handshake's shared secret and
// transcript hash are known.
func New(id uuid.UUID, suite cryptosuite.Suite, config Config, keys *KeySchedule, logger log.Logger) *Session {
	if logger == nil {
		logger = log.Nop()
	}
	now := time.Now()
	return &Session{
		id:           id,
		state:        StateInitial,
		config:       config,
		suite:        suite,
		createdAt:    now,
		lastActivity: now,
		replay:       NewReplayWindow(config.ReplayWindowSize),
		keys:         keys,
		logger:       logger.With(log.String("session_id", id.String())),
	}
}

func (s *Session) ID() uuid.UUID         { return s.id }
func (s *Session) Suite() cryptosuite.Suite { return s.suite }
func (s *Session) CreatedAt() time.Time  { return s.createdAt }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transition moves the session to to, rejecting any edge not present in
// the state machine. EmergencyStop bypasses this method entirely via
// ForceClose, since it must always be processed regardless of state.
func (s *Session) Transition(to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(to)
}

func (s *Session) transitionLocked(to State) error {
	if !validTransitions[s.state][to] {
		return errs.NewProtocol("invalid_transition",
			"illegal session state transition from "+s.state.String()+" to "+to.String(), nil)
	}
	s.logger.Debug("session state transition", log.String("from", s.state.String()), log.String("to", to.String()))
	s.state = to
	return nil
}

// ForceClose unconditionally moves the session to Closed, for
// EmergencyStop handling which must succeed from any state.
func (s *Session) ForceClose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
}

// NextSendSequence returns the next sequence number to stamp on an
// outgoing frame, incrementing the per-direction counter.
func (s *Session) NextSendSequence() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendSeq++
	return s.sendSeq
}

// ValidateIncoming checks an inbound frame's sequence number against the
// replay window and its timestamp against the configured skew tolerance.
// Each rejection increments the session's consecutive-error counter; once
// it reaches ReplayErrorThreshold the session transitions to Error.
func (s *Session) ValidateIncoming(sequence, timestamp uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.replay.Accept(sequence); err != nil {
		return s.recordErrorLocked(err)
	}

	now := uint64(time.Now().Unix())
	skew := s.config.TimestampSkew
	if skew == 0 {
		skew = DefaultConfig().TimestampSkew
	}
	diff := int64(now) - int64(timestamp)
	if diff < 0 {
		diff = -diff
	}
	if diff > int64(skew/time.Second) {
		return s.recordErrorLocked(errs.NewProtocol("timestamp_skew", "frame timestamp outside acceptable skew", nil))
	}

	s.consecutiveErrors = 0
	s.lastActivity = time.Now()
	return nil
}

func (s *Session) recordErrorLocked(cause error) error {
	s.consecutiveErrors++
	threshold := s.config.ReplayErrorThreshold
	if threshold == 0 {
		threshold = DefaultConfig().ReplayErrorThreshold
	}
	if s.consecutiveErrors >= threshold {
		s.state = StateError
	}
	return cause
}

// RecordHeartbeatSent resets the idle clock without affecting the missed
// heartbeat counter.
func (s *Session) RecordHeartbeatSent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// RecordHeartbeatReceived resets both the idle clock and the missed
// heartbeat counter.
func (s *Session) RecordHeartbeatReceived() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
	s.missedHeartbeats = 0
}

// IdleFor reports how long it has been since any traffic was recorded.
func (s *Session) IdleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActivity)
}

// NoteMissedHeartbeat increments the missed-heartbeat counter and reports
// whether the count has now reached MaxMissedHeartbeats and the session
// must be closed with a Timeout error.
func (s *Session) NoteMissedHeartbeat() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missedHeartbeats++
	max := s.config.MaxMissedHeartbeats
	if max == 0 {
		max = DefaultConfig().MaxMissedHeartbeats
	}
	return s.missedHeartbeats >= max
}

// Rotate advances the session's key schedule by one generation. Callers
// are responsible for emitting the PolicyUpdate rekey marker and for
// calling ExpirePrevious once the overlap window elapses.
func (s *Session) Rotate() (Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys.Rotate()
}

// CurrentGeneration returns the active key generation.
func (s *Session) CurrentGeneration() Generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys.Current()
}

// AcceptsGeneration reports whether id is an acceptable key generation for
// an inbound frame (current, or previous within the overlap window).
func (s *Session) AcceptsGeneration(id uint64) (Generation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys.AcceptsGeneration(id)
}

// ExpirePrevious drops the retained prior key generation.
func (s *Session) ExpirePrevious() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys.ExpirePrevious()
}
