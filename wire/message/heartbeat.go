package message

import "github.com/google/uuid"

// Heartbeat is sent by an idle Ready session to keep the peer's liveness
// timer from expiring.
type Heartbeat struct {
	SessionID    uuid.UUID
	HealthStatus HealthStatus
	Timestamp    uint64
}

func (m *Heartbeat) Type() Type { return TypeHeartbeat }

func (m *Heartbeat) Encode() []byte {
	w := &writer{}
	w.buf = append(w.buf, m.SessionID[:]...)
	w.u8(uint8(m.HealthStatus))
	w.u64(m.Timestamp)
	return w.buf
}

func (m *Heartbeat) Decode(buf []byte) error {
	r := newReader(buf)
	id, err := r.fixed(16)
	if err != nil {
		return err
	}
	copy(m.SessionID[:], id)
	status, err := r.u8()
	if err != nil {
		return err
	}
	m.HealthStatus = HealthStatus(status)
	if m.Timestamp, err = r.u64(); err != nil {
		return err
	}
	return nil
}
