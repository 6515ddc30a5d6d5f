package message

import "github.com/google/uuid"

// EmergencyStop immediately closes a session regardless of its current
// state; it is the only message type the session engine always processes,
// even mid-handshake.
type EmergencyStop struct {
	SessionID uuid.UUID
	Reason    string
	Timestamp uint64
	Signature []byte
}

func (m *EmergencyStop) Type() Type { return TypeEmergencyStop }

func (m *EmergencyStop) Encode() []byte {
	w := &writer{}
	w.buf = append(w.buf, m.SessionID[:]...)
	w.str(m.Reason)
	w.u64(m.Timestamp)
	w.bytes(m.Signature)
	return w.buf
}

func (m *EmergencyStop) Decode(buf []byte) error {
	r := newReader(buf)
	id, err := r.fixed(16)
	if err != nil {
		return err
	}
	copy(m.SessionID[:], id)
	if m.Reason, err = r.str(); err != nil {
		return err
	}
	if m.Timestamp, err = r.u64(); err != nil {
		return err
	}
	if m.Signature, err = r.bytes(); err != nil {
		return err
	}
	return nil
}
