package cliutil

import (
	"encoding/pem"
	"os"

	"github.com/iyotee/LSFTP/cryptosuite"
	"github.com/iyotee/LSFTP/cryptosuite/keymat"
	"github.com/iyotee/LSFTP/errs"
	"github.com/iyotee/LSFTP/hardwareauth"
)

// LoadOrGenerateIdentityKeyPair loads the long-term handshake identity
// keypair from certFile/keyFile (the PEM pair lsftp-tools keygen writes),
// or generates an ephemeral in-memory keypair for algo when both paths are
// unset, like LoadOrGenerateServerCert's local-testing fallback.
// private is nil when only a public key could be established (certFile
// set, keyFile empty): callers that only need to present an identity,
// never sign with it, should tolerate that.
func LoadOrGenerateIdentityKeyPair(certFile, keyFile string, algo cryptosuite.SignatureAlgorithm) (signer cryptosuite.Signer, public []byte, private *keymat.PrivateKey, err error) {
	if certFile == "" && keyFile == "" {
		signer, err = cryptosuite.NewSigner(algo)
		if err != nil {
			return nil, nil, nil, err
		}
		pub, priv, err := signer.GenerateKeyPair()
		if err != nil {
			return nil, nil, nil, errs.NewCrypto("identity_keygen_failed", "failed to generate ephemeral identity keypair", err)
		}
		pk, err := keymat.New(keymat.Algorithm(algo), priv)
		if err != nil {
			return nil, nil, nil, err
		}
		return signer, pub, pk, nil
	}

	var declaredAlgo string
	if certFile != "" {
		declaredAlgo, public, err = readPEMKey(certFile)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	var privBytes []byte
	if keyFile != "" {
		var keyAlgo string
		keyAlgo, privBytes, err = readPEMKey(keyFile)
		if err != nil {
			return nil, nil, nil, err
		}
		if declaredAlgo == "" {
			declaredAlgo = keyAlgo
		} else if declaredAlgo != keyAlgo {
			return nil, nil, nil, errs.NewConfig("identity_algorithm_mismatch",
				"identity certificate and key files declare different algorithms", nil)
		}
	}
	if declaredAlgo == "" {
		declaredAlgo = string(algo)
	}

	signer, err = cryptosuite.NewSigner(cryptosuite.SignatureAlgorithm(declaredAlgo))
	if err != nil {
		return nil, nil, nil, err
	}
	if privBytes != nil {
		private, err = keymat.New(keymat.Algorithm(declaredAlgo), privBytes)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return signer, public, private, nil
}

// VerifyHandshakeAttestation decodes and checks a peer's hardware
// attestation against the nonce this side issued during the handshake,
// failing closed when the peer presented none. Shared by lsftp-server and
// lsftp-client, which both gate handshake completion on it when their
// configuration requires hardware authentication.
func VerifyHandshakeAttestation(raw []byte, expectedNonce [32]byte, algo cryptosuite.SignatureAlgorithm) error {
	if len(raw) == 0 {
		return errs.NewHardwareAuth("attestation_required", "peer did not present a hardware attestation", nil)
	}
	att, err := hardwareauth.DecodeAttestation(raw)
	if err != nil {
		return err
	}
	valid, err := hardwareauth.VerifyRemoteAttestation(algo, expectedNonce, att)
	if err != nil {
		return err
	}
	if !valid {
		return errs.NewHardwareAuth("attestation_invalid", "hardware attestation failed verification", nil)
	}
	return nil
}

func readPEMKey(path string) (algorithm string, bytes []byte, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, errs.NewConfig("identity_key_read_failed", "failed to read identity key file", err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return "", nil, errs.NewConfig("identity_key_parse_failed", "no PEM block found in identity key file", nil)
	}
	algorithm = block.Headers["Algorithm"]
	if algorithm == "" {
		return "", nil, errs.NewConfig("identity_key_parse_failed", "identity key file has no Algorithm header", nil)
	}
	return algorithm, block.Bytes, nil
}
