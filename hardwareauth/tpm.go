package hardwareauth

import (
	"bytes"
	"crypto/rand"
	"time"

	"github.com/iyotee/LSFTP/cryptosuite"
	"github.com/iyotee/LSFTP/errs"
)

// TPMCapability models a TPM-like device: a manufacturer-signed
// endorsement keypair used to produce a PCR-quoted attestation over a
// caller-supplied nonce. There is no TPM transport in this corpus to
// ground an hardware binding on, so this talks to an in-process signer;
// a real deployment would swap this for a go-tpm-backed implementation
// behind the same Capability interface.
type TPMCapability struct {
	info       DeviceInfo
	signer     cryptosuite.Signer
	endorsePub []byte
	endorsePriv []byte
	pcrDigest  [32]byte
}

// NewTPMCapability creates a TPM-like capability whose endorsement key
// uses the given signature algorithm. pcrDigest represents the platform
// configuration registers' composite digest at attestation time.
func NewTPMCapability(info DeviceInfo, algo cryptosuite.SignatureAlgorithm, pcrDigest [32]byte) (*TPMCapability, error) {
	signer, err := cryptosuite.NewSigner(algo)
	if err != nil {
		return nil, err
	}
	return &TPMCapability{info: info, signer: signer, pcrDigest: pcrDigest}, nil
}

func (t *TPMCapability) Initialize() error {
	pub, priv, err := t.signer.GenerateKeyPair()
	if err != nil {
		return errs.NewHardwareAuth("endorsement_key_generation_failed", "failed to generate TPM endorsement keypair", err)
	}
	t.endorsePub, t.endorsePriv = pub, priv
	return nil
}

// Authenticate signs the challenge with the endorsement key, standing in
// for a TPM2_Sign operation bound to the platform's attestation key.
func (t *TPMCapability) Authenticate(challenge []byte) (AuthResult, error) {
	if t.endorsePriv == nil {
		return AuthResult{}, errs.NewHardwareAuth("not_initialized", "TPM capability used before Initialize", nil)
	}
	sig, err := t.signer.Sign(t.endorsePriv, challenge)
	if err != nil {
		return AuthResult{}, errs.NewHardwareAuth("authentication_failed", "TPM endorsement signature failed", err)
	}
	return AuthResult{Success: true, Response: sig, Timestamp: time.Now()}, nil
}

// GenerateAttestation produces a PCR-quoted attestation over a 32-byte
// nonce: a quote over (nonce || pcrDigest), signed by the endorsement key.
func (t *TPMCapability) GenerateAttestation(nonce [32]byte) (Attestation, error) {
	if t.endorsePriv == nil {
		return Attestation{}, errs.NewHardwareAuth("not_initialized", "TPM capability used before Initialize", nil)
	}
	quote := append(append([]byte{}, nonce[:]...), t.pcrDigest[:]...)
	sig, err := t.signer.Sign(t.endorsePriv, quote)
	if err != nil {
		return Attestation{}, errs.NewHardwareAuth("attestation_failed", "failed to sign TPM quote", err)
	}
	return Attestation{Nonce: nonce, Quote: quote, Signature: sig, PublicKey: t.endorsePub}, nil
}

func (t *TPMCapability) VerifyAttestation(att Attestation) (bool, error) {
	expectedQuote := append(append([]byte{}, att.Nonce[:]...), t.pcrDigest[:]...)
	if !bytes.Equal(expectedQuote, att.Quote) {
		return false, errs.NewHardwareAuth("quote_mismatch", "attestation quote does not match expected nonce and PCR digest", nil)
	}
	return t.signer.Verify(att.PublicKey, att.Quote, att.Signature), nil
}

func (t *TPMCapability) DeviceInfo() DeviceInfo { return t.info }

// freshNonce generates a random 32-byte attestation challenge nonce.
func freshNonce() ([32]byte, error) {
	var n [32]byte
	if _, err := rand.Read(n[:]); err != nil {
		return n, errs.NewCrypto("rng_failure", "failed to generate attestation nonce", err)
	}
	return n, nil
}
