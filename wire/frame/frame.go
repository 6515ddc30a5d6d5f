// Package frame implements the fixed-header, variable-payload binary
// framing used on the wire: a 24-byte header, the message payload, and a
// 32-byte authentication tag. The codec is transport- and key-agnostic —
// it carries whatever tag bytes the session layer hands it, without
// knowing how they were computed.
package frame

import (
	"encoding/binary"

	"github.com/iyotee/LSFTP/errs"
)

const (
	// HeaderSize is the fixed header length in bytes.
	HeaderSize = 24
	// TagSize is the authentication tag length in bytes.
	TagSize = 32
	// MinFrameSize is the smallest legal frame: header + empty payload + tag.
	MinFrameSize = HeaderSize + TagSize

	// DefaultMaxPayloadSize bounds how large a single frame's payload may
	// declare itself to be, absent an explicit configuration override.
	DefaultMaxPayloadSize = 16 << 20 // 16 MiB

	// ProtocolVersion is the only version this codec currently accepts.
	ProtocolVersion uint8 = 1
)

// Flags is the u16 bit field carried in the header.
type Flags uint16

const (
	FlagEndOfMessage Flags = 1 << 0
	FlagCompressed   Flags = 1 << 1
	FlagEncrypted    Flags = 1 << 2
	FlagRequiresAck  Flags = 1 << 3
	FlagHighPriority Flags = 1 << 4

	// flagsReservedMask covers every bit not assigned above; frames that
	// set any of these must be rejected.
	flagsReservedMask Flags = ^(FlagEndOfMessage | FlagCompressed | FlagEncrypted | FlagRequiresAck | FlagHighPriority)
)

// Has reports whether f has every bit in mask set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// Header is the frame's fixed 24-byte preamble.
type Header struct {
	Version     uint8
	MessageType uint8
	Flags       Flags
	Length      uint32
	Sequence    uint64
	Timestamp   uint64
}

// Frame is a decoded header plus its payload and authentication tag.
type Frame struct {
	Header  Header
	Payload []byte
	Tag     [TagSize]byte
}

// KnownMessageType reports whether code is one of the message types
// defined by the protocol. The frame codec rejects unknown types during
// parsing; the message layer owns the authoritative type registry, but the
// codec needs its own copy to enforce the invariant independently of
// whether the message package has been linked in.
func KnownMessageType(code uint8) bool {
	return code >= 0x01 && code <= 0x08
}

// Encode serializes header, payload, and tag in header-field declared
// order, big-endian, with payload and tag appended afterward.
func Encode(h Header, payload []byte, tag [TagSize]byte) []byte {
	out := make([]byte, HeaderSize+len(payload)+TagSize)
	out[0] = h.Version
	out[1] = h.MessageType
	binary.BigEndian.PutUint16(out[2:4], uint16(h.Flags))
	binary.BigEndian.PutUint32(out[4:8], h.Length)
	binary.BigEndian.PutUint64(out[8:16], h.Sequence)
	binary.BigEndian.PutUint64(out[16:24], h.Timestamp)
	n := copy(out[HeaderSize:], payload)
	copy(out[HeaderSize+n:], tag[:])
	return out
}

// Decode parses a frame from buf, enforcing every invariant from the wire
// format: minimum length, payload ceiling, known message type, version,
// and zeroed reserved flag bits. maxPayload of 0 selects
// DefaultMaxPayloadSize.
func Decode(buf []byte, maxPayload uint32) (Frame, error) {
	if maxPayload == 0 {
		maxPayload = DefaultMaxPayloadSize
	}
	if len(buf) < MinFrameSize {
		return Frame{}, errs.NewProtocol("frame_too_short", "frame shorter than minimum size", nil)
	}

	h := Header{
		Version:     buf[0],
		MessageType: buf[1],
		Flags:       Flags(binary.BigEndian.Uint16(buf[2:4])),
		Length:      binary.BigEndian.Uint32(buf[4:8]),
		Sequence:    binary.BigEndian.Uint64(buf[8:16]),
		Timestamp:   binary.BigEndian.Uint64(buf[16:24]),
	}

	if h.Version != ProtocolVersion {
		return Frame{}, errs.NewProtocol("unsupported_version", "frame version is not supported", nil)
	}
	if !KnownMessageType(h.MessageType) {
		return Frame{}, errs.NewProtocol("unknown_message_type", "frame carries an unrecognized message type", nil)
	}
	if h.Flags&flagsReservedMask != 0 {
		return Frame{}, errs.NewProtocol("reserved_flags_set", "frame sets reserved flag bits", nil)
	}
	if h.Length > maxPayload {
		return Frame{}, errs.NewProtocol("payload_too_large", "frame length exceeds configured ceiling", nil)
	}
	if uint64(len(buf)) != uint64(HeaderSize)+uint64(h.Length)+uint64(TagSize) {
		return Frame{}, errs.NewProtocol("length_mismatch", "frame length field does not match buffer size", nil)
	}

	f := Frame{Header: h}
	f.Payload = append([]byte(nil), buf[HeaderSize:HeaderSize+h.Length]...)
	copy(f.Tag[:], buf[HeaderSize+h.Length:])
	return f, nil
}

// Build assembles a Header for a payload of the given length, message type,
// flags, sequence number, and timestamp, ready for hashing/tagging by the
// session layer before Encode is called.
func Build(messageType uint8, flags Flags, payloadLen int, sequence, timestamp uint64) Header {
	return Header{
		Version:     ProtocolVersion,
		MessageType: messageType,
		Flags:       flags,
		Length:      uint32(payloadLen),
		Sequence:    sequence,
		Timestamp:   timestamp,
	}
}
