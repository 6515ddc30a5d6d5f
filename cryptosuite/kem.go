package cryptosuite

import (
	"crypto/ecdh"
	"crypto/rand"
	"fmt"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/mlkem/mlkem1024"
	"github.com/cloudflare/circl/kem/mlkem/mlkem768"

	"github.com/iyotee/LSFTP/errs"
)

// KEM abstracts a key-encapsulation mechanism behind the shape both the
// classical ECDH path and the ML-KEM path can satisfy. Treating ECDH as a
// degenerate KEM (Encapsulate performs an ephemeral DH and returns the
// ephemeral public key as the "ciphertext") lets the hybrid combiner and the
// handshake code stay oblivious to which concrete scheme backs a Suite.
type KEM interface {
	Algorithm() KEMAlgorithm
	PublicKeySize() int
	CiphertextSize() int
	SharedSecretSize() int

	// GenerateKeyPair produces a fresh long-term or ephemeral keypair.
	GenerateKeyPair() (public, private []byte, err error)

	// Encapsulate derives a shared secret bound to peerPublic and returns an
	// encapsulation blob the peer needs to recover it.
	Encapsulate(peerPublic []byte) (ciphertext, sharedSecret []byte, err error)

	// Decapsulate recovers the shared secret using the local private key.
	Decapsulate(ciphertext, ourPrivate []byte) (sharedSecret []byte, err error)
}

// NewKEM returns the KEM implementation for algo.
func NewKEM(algo KEMAlgorithm) (KEM, error) {
	switch algo {
	case KEMClassicalECDH:
		return classicalECDH{}, nil
	case KEMMLKEM768:
		return mlkemScheme{algo: KEMMLKEM768, scheme: mlkem768.Scheme()}, nil
	case KEMMLKEM1024:
		return mlkemScheme{algo: KEMMLKEM1024, scheme: mlkem1024.Scheme()}, nil
	case KEMHybridECDHMLKEM768:
		return NewHybridKEM(classicalECDH{}, mlkemScheme{algo: KEMMLKEM768, scheme: mlkem768.Scheme()}, KEMHybridECDHMLKEM768), nil
	default:
		return nil, errs.NewCrypto("unknown_kem", fmt.Sprintf("unknown KEM algorithm %q", algo), nil)
	}
}

// --- classical ECDH-as-KEM -------------------------------------------------

type classicalECDH struct{}

func (classicalECDH) Algorithm() KEMAlgorithm   { return KEMClassicalECDH }
func (classicalECDH) PublicKeySize() int        { return 32 }
func (classicalECDH) CiphertextSize() int       { return 32 } // the peer's ephemeral public key
func (classicalECDH) SharedSecretSize() int     { return 32 }

func (classicalECDH) GenerateKeyPair() (public, private []byte, err error) {
	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, errs.NewCrypto("keygen_failed", "x25519 keygen failed", err)
	}
	return priv.PublicKey().Bytes(), priv.Bytes(), nil
}

// Encapsulate runs an ephemeral-ephemeral X25519 exchange: it generates a
// fresh ephemeral keypair, computes the shared secret against peerPublic,
// and returns its own ephemeral public key as the "ciphertext" the peer
// needs to reproduce the same secret via Decapsulate.
func (c classicalECDH) Encapsulate(peerPublic []byte) (ciphertext, sharedSecret []byte, err error) {
	ourPub, ourPriv, err := c.GenerateKeyPair()
	if err != nil {
		return nil, nil, err
	}
	secret, err := x25519Shared(ourPriv, peerPublic)
	if err != nil {
		return nil, nil, err
	}
	return ourPub, secret, nil
}

// Decapsulate treats ciphertext as the peer's ephemeral public key and
// derives the same shared secret via X25519 against ourPrivate.
func (classicalECDH) Decapsulate(ciphertext, ourPrivate []byte) (sharedSecret []byte, err error) {
	return x25519Shared(ourPrivate, ciphertext)
}

func x25519Shared(ourPrivBytes, peerPubBytes []byte) ([]byte, error) {
	priv, err := ecdh.X25519().NewPrivateKey(ourPrivBytes)
	if err != nil {
		return nil, errs.NewCrypto("invalid_private_key", "malformed x25519 private key", err)
	}
	peerPub, err := ecdh.X25519().NewPublicKey(peerPubBytes)
	if err != nil {
		return nil, errs.NewCrypto("invalid_public_key", "malformed x25519 public key", err)
	}
	shared, err := priv.ECDH(peerPub)
	if err != nil {
		return nil, errs.NewCrypto("ecdh_failed", "x25519 ECDH failed", err)
	}
	return shared, nil
}

// --- ML-KEM (circl) ---------------------------------------------------------

type mlkemScheme struct {
	algo   KEMAlgorithm
	scheme kem.Scheme
}

func (m mlkemScheme) Algorithm() KEMAlgorithm { return m.algo }
func (m mlkemScheme) PublicKeySize() int      { return m.scheme.PublicKeySize() }
func (m mlkemScheme) CiphertextSize() int     { return m.scheme.CiphertextSize() }
func (m mlkemScheme) SharedSecretSize() int   { return m.scheme.SharedKeySize() }

func (m mlkemScheme) GenerateKeyPair() (public, private []byte, err error) {
	pub, priv, err := m.scheme.GenerateKeyPair()
	if err != nil {
		return nil, nil, errs.NewCrypto("keygen_failed", string(m.algo)+" keygen failed", err)
	}
	pubBytes, err := pub.MarshalBinary()
	if err != nil {
		return nil, nil, errs.NewCrypto("keygen_failed", "marshal public key failed", err)
	}
	privBytes, err := priv.MarshalBinary()
	if err != nil {
		return nil, nil, errs.NewCrypto("keygen_failed", "marshal private key failed", err)
	}
	return pubBytes, privBytes, nil
}

func (m mlkemScheme) Encapsulate(peerPublic []byte) (ciphertext, sharedSecret []byte, err error) {
	pub, err := m.scheme.UnmarshalBinaryPublicKey(peerPublic)
	if err != nil {
		return nil, nil, errs.NewCrypto("invalid_public_key", string(m.algo)+" public key unmarshal failed", err)
	}
	ct, ss, err := m.scheme.Encapsulate(pub)
	if err != nil {
		return nil, nil, errs.NewCrypto("encapsulate_failed", string(m.algo)+" encapsulation failed", err)
	}
	return ct, ss, nil
}

func (m mlkemScheme) Decapsulate(ciphertext, ourPrivate []byte) (sharedSecret []byte, err error) {
	priv, err := m.scheme.UnmarshalBinaryPrivateKey(ourPrivate)
	if err != nil {
		return nil, errs.NewCrypto("invalid_private_key", string(m.algo)+" private key unmarshal failed", err)
	}
	ss, err := m.scheme.Decapsulate(priv, ciphertext)
	if err != nil {
		return nil, errs.NewCrypto("decapsulate_failed", string(m.algo)+" decapsulation failed", err)
	}
	return ss, nil
}

// --- hybrid combiner ---------------------------------------------------------

// HybridKEM runs a classical and a post-quantum KEM in parallel and
// concatenates their public keys, ciphertexts and shared secrets
// (classical‖pq in every case). A hybrid shared secret is compromised only
// if both components are broken, because the session key derivation
// (session.DeriveInitialKeys) HKDFs over the full concatenation: an attacker who
// recovers only one half still faces full entropy from the other.
type HybridKEM struct {
	classical KEM
	pq        KEM
	algo      KEMAlgorithm
}

func NewHybridKEM(classical, pq KEM, algo KEMAlgorithm) *HybridKEM {
	return &HybridKEM{classical: classical, pq: pq, algo: algo}
}

func (h *HybridKEM) Algorithm() KEMAlgorithm { return h.algo }
func (h *HybridKEM) PublicKeySize() int      { return h.classical.PublicKeySize() + h.pq.PublicKeySize() }
func (h *HybridKEM) CiphertextSize() int     { return h.classical.CiphertextSize() + h.pq.CiphertextSize() }
func (h *HybridKEM) SharedSecretSize() int   { return h.classical.SharedSecretSize() + h.pq.SharedSecretSize() }

func (h *HybridKEM) GenerateKeyPair() (public, private []byte, err error) {
	cPub, cPriv, err := h.classical.GenerateKeyPair()
	if err != nil {
		return nil, nil, err
	}
	pPub, pPriv, err := h.pq.GenerateKeyPair()
	if err != nil {
		return nil, nil, err
	}
	return append(append([]byte{}, cPub...), pPub...), append(append([]byte{}, cPriv...), pPriv...), nil
}

func (h *HybridKEM) splitPublic(peerPublic []byte) (cPub, pPub []byte, err error) {
	want := h.classical.PublicKeySize() + h.pq.PublicKeySize()
	if len(peerPublic) != want {
		return nil, nil, errs.NewCrypto("hybrid_length_mismatch",
			fmt.Sprintf("hybrid public key length %d != %d", len(peerPublic), want), nil)
	}
	return peerPublic[:h.classical.PublicKeySize()], peerPublic[h.classical.PublicKeySize():], nil
}

func (h *HybridKEM) splitPrivate(ourPrivate []byte) (cPriv, pPriv []byte, err error) {
	// Only the classical half has a private key as long as its public key;
	// the ML-KEM private key is longer than its public key.
	want := h.classical.PublicKeySize() + h.pq.PublicKeySize()
	_ = want
	// classical private key size equals its public key size (32 bytes for X25519);
	// the pq private key occupies the remainder.
	cLen := h.classical.PublicKeySize()
	if len(ourPrivate) <= cLen {
		return nil, nil, errs.NewCrypto("hybrid_length_mismatch", "hybrid private key too short", nil)
	}
	return ourPrivate[:cLen], ourPrivate[cLen:], nil
}

func (h *HybridKEM) splitCiphertext(ciphertext []byte) (cCt, pCt []byte, err error) {
	want := h.classical.CiphertextSize() + h.pq.CiphertextSize()
	if len(ciphertext) != want {
		return nil, nil, errs.NewCrypto("hybrid_length_mismatch",
			fmt.Sprintf("hybrid ciphertext length %d != %d", len(ciphertext), want), nil)
	}
	return ciphertext[:h.classical.CiphertextSize()], ciphertext[h.classical.CiphertextSize():], nil
}

func (h *HybridKEM) Encapsulate(peerPublic []byte) (ciphertext, sharedSecret []byte, err error) {
	cPub, pPub, err := h.splitPublic(peerPublic)
	if err != nil {
		return nil, nil, err
	}
	cCt, cSS, err := h.classical.Encapsulate(cPub)
	if err != nil {
		return nil, nil, err
	}
	pCt, pSS, err := h.pq.Encapsulate(pPub)
	if err != nil {
		return nil, nil, err
	}
	return append(append([]byte{}, cCt...), pCt...), append(append([]byte{}, cSS...), pSS...), nil
}

func (h *HybridKEM) Decapsulate(ciphertext, ourPrivate []byte) (sharedSecret []byte, err error) {
	cCt, pCt, err := h.splitCiphertext(ciphertext)
	if err != nil {
		return nil, err
	}
	cPriv, pPriv, err := h.splitPrivate(ourPrivate)
	if err != nil {
		return nil, err
	}
	cSS, err := h.classical.Decapsulate(cCt, cPriv)
	if err != nil {
		return nil, err
	}
	pSS, err := h.pq.Decapsulate(pCt, pPriv)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, cSS...), pSS...), nil
}
