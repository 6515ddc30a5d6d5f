package hardwareauth

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/iyotee/LSFTP/errs"
)

// TokenCapability models a hardware token / FIDO2-style authenticator: a
// device-resident symmetric secret that answers challenges with a keyed
// MAC, the same shape as a U2F/FIDO2 "sign" operation without the
// platform attestation chain. No FIDO2 client library is present in this
// corpus to bind against, so the device-resident secret is exercised
// directly here.
type TokenCapability struct {
	info       DeviceInfo
	deviceKey  []byte
	registered bool
}

// NewTokenCapability creates a token capability backed by a 32-byte
// device-resident secret.
func NewTokenCapability(info DeviceInfo, deviceKey []byte) (*TokenCapability, error) {
	if len(deviceKey) != 32 {
		return nil, errs.NewInvalidInput("invalid_device_key", "hardware token device key must be 32 bytes", nil)
	}
	return &TokenCapability{info: info, deviceKey: deviceKey}, nil
}

func (t *TokenCapability) Initialize() error {
	t.registered = true
	return nil
}

// Authenticate answers challenge with BLAKE2b-keyed-MAC(deviceKey, challenge),
// the token's sign-count-free response to a server nonce.
func (t *TokenCapability) Authenticate(challenge []byte) (AuthResult, error) {
	if !t.registered {
		return AuthResult{}, errs.NewHardwareAuth("not_initialized", "token capability used before Initialize", nil)
	}
	mac, err := blake2b.New256(t.deviceKey)
	if err != nil {
		return AuthResult{}, errs.NewHardwareAuth("mac_init_failed", "failed to initialize token MAC", err)
	}
	if _, err := mac.Write(challenge); err != nil {
		return AuthResult{}, errs.NewHardwareAuth("mac_write_failed", "failed to compute token response", err)
	}
	return AuthResult{Success: true, Response: mac.Sum(nil), Timestamp: time.Now()}, nil
}

// GenerateAttestation produces a MAC over the nonce, standing in for a
// FIDO2 self-attestation (tokens of this class have no separate
// attestation keypair; the device-resident secret plays double duty).
func (t *TokenCapability) GenerateAttestation(nonce [32]byte) (Attestation, error) {
	if !t.registered {
		return Attestation{}, errs.NewHardwareAuth("not_initialized", "token capability used before Initialize", nil)
	}
	mac, err := blake2b.New256(t.deviceKey)
	if err != nil {
		return Attestation{}, errs.NewHardwareAuth("mac_init_failed", "failed to initialize token MAC", err)
	}
	mac.Write(nonce[:])
	sig := mac.Sum(nil)
	return Attestation{Nonce: nonce, Quote: append([]byte{}, nonce[:]...), Signature: sig}, nil
}

// VerifyAttestation recomputes the MAC over att.Nonce and compares it in
// constant time against att.Signature. This only makes sense against the
// same device secret (i.e. self-verification, or a verifier holding an
// escrowed copy of deviceKey); cross-device verification of a hardware
// token capability is not meaningful and always fails.
func (t *TokenCapability) VerifyAttestation(att Attestation) (bool, error) {
	if !bytes.Equal(att.Quote, att.Nonce[:]) {
		return false, errs.NewHardwareAuth("quote_mismatch", "token attestation quote does not match nonce", nil)
	}
	mac, err := blake2b.New256(t.deviceKey)
	if err != nil {
		return false, errs.NewHardwareAuth("mac_init_failed", "failed to initialize token MAC", err)
	}
	mac.Write(att.Nonce[:])
	return hmac.Equal(mac.Sum(nil), att.Signature), nil
}

func (t *TokenCapability) DeviceInfo() DeviceInfo { return t.info }

// randomDeviceKey generates a fresh 32-byte device-resident secret
// suitable for provisioning a simulated token.
func randomDeviceKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, errs.NewCrypto("rng_failure", "failed to generate token device key", err)
	}
	return key, nil
}
