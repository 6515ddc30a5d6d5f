// Package message defines the typed payload records carried inside frame
// bodies, and their compact binary encoding. Every record type round-trips
// through Encode/Decode; unknown type codes surface as Protocol errors.
package message

import (
	"github.com/iyotee/LSFTP/errs"
)

// Type identifies which payload record a frame's message_type selects.
type Type uint8

const (
	TypeHandshake     Type = 0x01
	TypeFileOpen      Type = 0x02
	TypeFileData      Type = 0x03
	TypeFileClose     Type = 0x04
	TypeHeartbeat     Type = 0x05
	TypePolicyUpdate  Type = 0x06
	TypeEmergencyStop Type = 0x07
	TypeDirList       Type = 0x08
)

// HealthStatus enumerates a Heartbeat's self-reported state.
type HealthStatus uint8

const (
	HealthHealthy HealthStatus = iota
	HealthWarning
	HealthCritical
	HealthUnknown
)

// Payload is implemented by every typed record in this package.
type Payload interface {
	Type() Type
	Encode() []byte
	Decode(buf []byte) error
}

// Decode dispatches on t to construct and decode the matching Payload.
// Unknown type codes return a Protocol error, matching the frame codec's
// own rejection of unrecognized message_type values.
func Decode(t Type, buf []byte) (Payload, error) {
	var p Payload
	switch t {
	case TypeHandshake:
		p = &Handshake{}
	case TypeFileOpen:
		p = &FileOpen{}
	case TypeFileData:
		p = &FileData{}
	case TypeFileClose:
		p = &FileClose{}
	case TypeHeartbeat:
		p = &Heartbeat{}
	case TypePolicyUpdate:
		p = &PolicyUpdate{}
	case TypeEmergencyStop:
		p = &EmergencyStop{}
	case TypeDirList:
		p = &DirList{}
	default:
		return nil, errs.NewProtocol("unknown_message_type", "cannot decode unrecognized message type", nil)
	}
	if err := p.Decode(buf); err != nil {
		return nil, err
	}
	return p, nil
}
