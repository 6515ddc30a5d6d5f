package hardwareauth

import (
	"time"

	"github.com/ebfe/scard"

	"github.com/iyotee/LSFTP/cryptosuite"
	"github.com/iyotee/LSFTP/errs"
)

// apduSelectApp is the SELECT command for the protocol's PIV-style
// authentication applet, chosen to mirror the card-select step every
// PC/SC flow in this corpus performs before issuing domain APDUs.
var apduSelectApp = []byte{0x00, 0xA4, 0x04, 0x00, 0x07, 0xA0, 0x00, 0x00, 0x03, 0x08, 0x00, 0x01, 0x00}

func swOK(sw uint16) bool { return sw == 0x9000 }

func transmit(card *scard.Card, apdu []byte) ([]byte, uint16, error) {
	resp, err := card.Transmit(apdu)
	if err != nil {
		return nil, 0, errs.NewHardwareAuth("apdu_transmit_failed", "PC/SC APDU transmission failed", err)
	}
	if len(resp) < 2 {
		return nil, 0, errs.NewHardwareAuth("apdu_short_response", "PC/SC card returned a short response", nil)
	}
	sw := uint16(resp[len(resp)-2])<<8 | uint16(resp[len(resp)-1])
	return resp[:len(resp)-2], sw, nil
}

// cardConnection is the subset of a PC/SC connection the smart card
// capability needs; smartcardConn below is the real scard-backed
// implementation, and tests substitute a fake.
type cardConnection interface {
	Transmit(apdu []byte) ([]byte, error)
	Close()
}

// smartcardConn wraps a live PC/SC reader connection.
type smartcardConn struct {
	ctx    *scard.Context
	card   *scard.Card
	reader string
}

// connectSmartCard establishes a PC/SC context and connects to the
// reader at readerIndex, mirroring the Connect(readerIndex) pattern used
// throughout this corpus's smart card tooling.
func connectSmartCard(readerIndex int) (*smartcardConn, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, errs.NewHardwareAuth("pcsc_context_failed", "failed to establish PC/SC context", err)
	}
	readers, err := ctx.ListReaders()
	if err != nil || len(readers) == 0 {
		ctx.Release()
		return nil, errs.NewHardwareAuth("no_readers_found", "no PC/SC readers found", err)
	}
	if readerIndex < 0 || readerIndex >= len(readers) {
		ctx.Release()
		return nil, errs.NewHardwareAuth("reader_index_out_of_range", "requested reader index is out of range", nil)
	}
	reader := readers[readerIndex]
	card, err := ctx.Connect(reader, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		ctx.Release()
		return nil, errs.NewHardwareAuth("card_connect_failed", "failed to connect to smart card", err)
	}
	return &smartcardConn{ctx: ctx, card: card, reader: reader}, nil
}

func (c *smartcardConn) Transmit(apdu []byte) ([]byte, error) { return c.card.Transmit(apdu) }

func (c *smartcardConn) Close() {
	if c.card != nil {
		_ = c.card.Disconnect(scard.LeaveCard)
	}
	if c.ctx != nil {
		_ = c.ctx.Release()
	}
}

// SmartCardCapability authenticates against a PC/SC smart card holding a
// PIV-style authentication certificate: challenges are signed on-card via
// a GENERAL AUTHENTICATE APDU and verified against the card's public
// certificate using the negotiated signature scheme.
type SmartCardCapability struct {
	info   DeviceInfo
	conn   cardConnection
	verify cryptosuite.Signer
	certPub []byte
	keyRef  byte
}

// NewSmartCardCapability wires a connection (real or faked for tests)
// against the card's known public key and signature algorithm.
func NewSmartCardCapability(info DeviceInfo, conn cardConnection, verify cryptosuite.Signer, certPub []byte, keyRef byte) *SmartCardCapability {
	return &SmartCardCapability{info: info, conn: conn, verify: verify, certPub: certPub, keyRef: keyRef}
}

func (s *SmartCardCapability) Initialize() error {
	if s.conn == nil {
		return errs.NewHardwareAuth("no_connection", "smart card capability has no PC/SC connection", nil)
	}
	return nil
}

// buildGeneralAuthenticate wraps challenge in a minimal GENERAL AUTHENTICATE
// data object (tag 0x7C, dynamic authentication template 0x82 challenge).
func buildGeneralAuthenticate(keyRef byte, challenge []byte) []byte {
	body := append([]byte{0x82, byte(len(challenge))}, challenge...)
	apdu := []byte{0x00, 0x87, 0x00, keyRef, byte(len(body) + 2), 0x7C, byte(len(body))}
	apdu = append(apdu, body...)
	apdu = append(apdu, 0x00)
	return apdu
}

// Authenticate sends challenge to the card's GENERAL AUTHENTICATE command
// and returns the card-signed response.
func (s *SmartCardCapability) Authenticate(challenge []byte) (AuthResult, error) {
	if s.conn == nil {
		return AuthResult{}, errs.NewHardwareAuth("not_initialized", "smart card capability used before Initialize", nil)
	}
	resp, err := s.conn.Transmit(buildGeneralAuthenticate(s.keyRef, challenge))
	if err != nil {
		return AuthResult{}, errs.NewHardwareAuth("apdu_transmit_failed", "smart card GENERAL AUTHENTICATE failed", err)
	}
	if len(resp) < 2 {
		return AuthResult{}, errs.NewHardwareAuth("apdu_short_response", "smart card returned a short response", nil)
	}
	sw := uint16(resp[len(resp)-2])<<8 | uint16(resp[len(resp)-1])
	if !swOK(sw) {
		return AuthResult{}, errs.NewHardwareAuth("card_auth_rejected", "smart card rejected the authentication request", nil)
	}
	return AuthResult{Success: true, Response: resp[:len(resp)-2], Timestamp: time.Now()}, nil
}

// GenerateAttestation asks the card to sign the nonce and packages the
// response as a quote against the card's own public certificate key.
func (s *SmartCardCapability) GenerateAttestation(nonce [32]byte) (Attestation, error) {
	result, err := s.Authenticate(nonce[:])
	if err != nil {
		return Attestation{}, err
	}
	return Attestation{Nonce: nonce, Quote: append([]byte{}, nonce[:]...), Signature: result.Response, PublicKey: s.certPub}, nil
}

// VerifyAttestation verifies att.Signature against att.PublicKey (or the
// capability's configured certificate public key if att.PublicKey is
// empty) using the configured signature scheme.
func (s *SmartCardCapability) VerifyAttestation(att Attestation) (bool, error) {
	pub := att.PublicKey
	if len(pub) == 0 {
		pub = s.certPub
	}
	return s.verify.Verify(pub, att.Quote, att.Signature), nil
}

func (s *SmartCardCapability) DeviceInfo() DeviceInfo { return s.info }
