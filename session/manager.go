package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iyotee/LSFTP/cryptosuite"
	"github.com/iyotee/LSFTP/internal/metrics"
	"github.com/iyotee/LSFTP/log"
)

// Manager owns the set of live sessions on one endpoint, keyed by session
// ID, and provides the heartbeat sweep that times out idle connections.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	logger   log.Logger
}

// NewManager creates an empty session manager.
func NewManager(logger log.Logger) *Manager {
	if logger == nil {
		logger = log.Nop()
	}
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		logger:   logger,
	}
}

// Create registers a new session under its own ID.
func (m *Manager) Create(suite cryptosuite.Suite, config Config, keys *KeySchedule) *Session {
	sess := New(uuid.New(), suite, config, keys, m.logger)

	m.mu.Lock()
	m.sessions[sess.ID()] = sess
	m.mu.Unlock()

	metrics.SessionsCreated.WithLabelValues("success").Inc()
	metrics.SessionsActive.Inc()

	return sess
}

// Get retrieves a session by ID.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Remove drops a session from the manager, e.g. once it has reached
// StateClosed.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		metrics.SessionsActive.Dec()
		metrics.SessionsClosed.Inc()
	}
}

// Count returns the number of tracked sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SweepHeartbeats should be called roughly every HeartbeatInterval. Any
// session that has been idle for longer than HeartbeatInterval records a
// missed heartbeat; a session that crosses MaxMissedHeartbeats is
// transitioned to Error and returned to the caller to close and remove.
func (m *Manager) SweepHeartbeats() []*Session {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.mu.RUnlock()

	var timedOut []*Session
	for _, sess := range sessions {
		interval := sess.config.HeartbeatInterval
		if interval == 0 {
			interval = DefaultConfig().HeartbeatInterval
		}
		if sess.IdleFor() < interval {
			continue
		}
		if sess.NoteMissedHeartbeat() {
			_ = sess.Transition(StateError)
			metrics.SessionsExpired.Inc()
			timedOut = append(timedOut, sess)
		}
	}
	return timedOut
}

// Run starts a blocking heartbeat sweep loop at DefaultConfig's
// HeartbeatInterval, calling onTimeout for each session that times out,
// until stop is closed. Launch it with `go manager.Run(stop, onTimeout)`.
func (m *Manager) Run(stop <-chan struct{}, onTimeout func(*Session)) {
	interval := DefaultConfig().HeartbeatInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, sess := range m.SweepHeartbeats() {
				if onTimeout != nil {
					onTimeout(sess)
				}
			}
		case <-stop:
			return
		}
	}
}
