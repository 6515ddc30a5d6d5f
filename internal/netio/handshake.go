package netio

import (
	"time"

	"github.com/iyotee/LSFTP/errs"
	"github.com/iyotee/LSFTP/wire/frame"
	"github.com/iyotee/LSFTP/wire/message"
)

// SendHandshake writes a Handshake message unencrypted: no session keys
// exist yet to seal it with, so the frame carries no FlagEncrypted and its
// tag field is left zeroed. Once the handshake completes, all further
// traffic on the stream flows through a Conn instead.
func SendHandshake(stream interface{ Write([]byte) (int, error) }, seq uint64, payload message.Payload) error {
	plaintext := payload.Encode()
	header := frame.Build(uint8(payload.Type()), frame.FlagEndOfMessage, len(plaintext), seq, uint64(time.Now().Unix()))
	out := frame.Encode(header, plaintext, [frame.TagSize]byte{})
	if _, err := stream.Write(out); err != nil {
		return errs.NewTransport("handshake_write_failed", "failed to write handshake frame", err)
	}
	return nil
}

// RecvHandshake reads and decodes the next unencrypted handshake frame
// from stream.
func RecvHandshake(stream interface{ Read([]byte) (int, error) }, maxPayload uint32) (message.Payload, error) {
	header := make([]byte, frame.HeaderSize)
	if _, err := fullRead(stream, header); err != nil {
		return nil, errs.NewTransport("handshake_header_read_failed", "failed to read handshake frame header", err)
	}
	length := uint32(header[4])<<24 | uint32(header[5])<<16 | uint32(header[6])<<8 | uint32(header[7])
	if maxPayload != 0 && length > maxPayload {
		return nil, errs.NewProtocol("payload_too_large", "handshake frame length exceeds configured ceiling", nil)
	}
	rest := make([]byte, int(length)+frame.TagSize)
	if _, err := fullRead(stream, rest); err != nil {
		return nil, errs.NewTransport("handshake_body_read_failed", "failed to read handshake frame body", err)
	}
	buf := append(header, rest...)
	f, err := frame.Decode(buf, maxPayload)
	if err != nil {
		return nil, err
	}
	return message.Decode(message.Type(f.Header.MessageType), f.Payload)
}
