// Package hardwareauth implements the protocol's hardware-backed
// authentication capability: a common interface over TPM-like endorsement
// keys, hardware token / FIDO2-style authenticators, and PC/SC smart
// cards, plus a device-enumeration factory.
package hardwareauth

import (
	"encoding/json"
	"time"

	"github.com/iyotee/LSFTP/errs"
)

// DeviceType identifies which kind of hardware authenticator a Capability
// wraps.
type DeviceType string

const (
	DeviceTPM       DeviceType = "tpm"
	DeviceToken     DeviceType = "hardware-token"
	DeviceSmartCard DeviceType = "smart-card"
)

// DeviceInfo describes one enumerated hardware authenticator.
type DeviceInfo struct {
	DeviceType          DeviceType
	DeviceID            string
	Manufacturer        string
	Model               string
	FirmwareVersion     string
	SupportedAlgorithms []string
	Capabilities        []string
}

// AuthResult is returned by a successful or failed Authenticate call.
type AuthResult struct {
	Success   bool
	Response  []byte
	Timestamp time.Time
}

// Attestation is a signed statement binding a device's endorsement key to
// a freshness nonce, used to prove the key lives inside genuine hardware.
type Attestation struct {
	Nonce     [32]byte
	Quote     []byte
	Signature []byte
	PublicKey []byte
}

// EncodeAttestation serializes att for transport inside a Handshake
// message's opaque HardwareAttestation field.
func EncodeAttestation(att Attestation) ([]byte, error) {
	data, err := json.Marshal(att)
	if err != nil {
		return nil, errs.NewHardwareAuth("attestation_encode_failed", "failed to encode hardware attestation", err)
	}
	return data, nil
}

// DecodeAttestation parses bytes previously produced by EncodeAttestation.
func DecodeAttestation(data []byte) (Attestation, error) {
	var att Attestation
	if err := json.Unmarshal(data, &att); err != nil {
		return Attestation{}, errs.NewHardwareAuth("attestation_decode_failed", "failed to decode hardware attestation", err)
	}
	return att, nil
}

// Capability is implemented by every hardware authenticator variant.
type Capability interface {
	Initialize() error
	Authenticate(challenge []byte) (AuthResult, error)
	GenerateAttestation(nonce [32]byte) (Attestation, error)
	VerifyAttestation(att Attestation) (bool, error)
	DeviceInfo() DeviceInfo
}
