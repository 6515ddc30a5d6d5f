package cryptosuite

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	circlsign "github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	"github.com/cloudflare/circl/sign/mldsa/mldsa87"

	"github.com/iyotee/LSFTP/errs"
)

// Signer abstracts a signature scheme behind classical, post-quantum and
// hybrid variants. Hybrid signatures are the concatenation classical‖pq;
// Verify on a hybrid scheme only returns true when BOTH components verify.
type Signer interface {
	Algorithm() SignatureAlgorithm
	PublicKeySize() int
	SignatureSize() int

	GenerateKeyPair() (public, private []byte, err error)
	Sign(private, message []byte) (signature []byte, err error)
	Verify(public, message, signature []byte) bool
}

// NewSigner returns the Signer implementation for algo.
func NewSigner(algo SignatureAlgorithm) (Signer, error) {
	switch algo {
	case SigClassicalEd25519:
		return ed25519Signer{}, nil
	case SigMLDSA65:
		return mldsaSigner{algo: SigMLDSA65, scheme: mldsa65.Scheme()}, nil
	case SigMLDSA87:
		return mldsaSigner{algo: SigMLDSA87, scheme: mldsa87.Scheme()}, nil
	case SigHybridEd25519MLDSA65:
		return NewHybridSigner(ed25519Signer{}, mldsaSigner{algo: SigMLDSA65, scheme: mldsa65.Scheme()}, SigHybridEd25519MLDSA65), nil
	default:
		return nil, errs.NewCrypto("unknown_signature", fmt.Sprintf("unknown signature algorithm %q", algo), nil)
	}
}

// --- classical Ed25519 -------------------------------------------------------

type ed25519Signer struct{}

func (ed25519Signer) Algorithm() SignatureAlgorithm { return SigClassicalEd25519 }
func (ed25519Signer) PublicKeySize() int            { return ed25519.PublicKeySize }
func (ed25519Signer) SignatureSize() int            { return ed25519.SignatureSize }

func (ed25519Signer) GenerateKeyPair() (public, private []byte, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, errs.NewCrypto("keygen_failed", "ed25519 keygen failed", err)
	}
	return pub, priv, nil
}

func (ed25519Signer) Sign(private, message []byte) ([]byte, error) {
	if len(private) != ed25519.PrivateKeySize {
		return nil, errs.NewCrypto("invalid_private_key", "malformed ed25519 private key", nil)
	}
	return ed25519.Sign(ed25519.PrivateKey(private), message), nil
}

func (ed25519Signer) Verify(public, message, signature []byte) bool {
	if len(public) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(public), message, signature)
}

// --- ML-DSA (circl) ----------------------------------------------------------

type mldsaSigner struct {
	algo   SignatureAlgorithm
	scheme circlsign.Scheme
}

func (m mldsaSigner) Algorithm() SignatureAlgorithm { return m.algo }
func (m mldsaSigner) PublicKeySize() int            { return m.scheme.PublicKeySize() }
func (m mldsaSigner) SignatureSize() int            { return m.scheme.SignatureSize() }

func (m mldsaSigner) GenerateKeyPair() (public, private []byte, err error) {
	pub, priv, err := m.scheme.GenerateKey()
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

func (m mldsaSigner) Sign(private, message []byte) ([]byte, error) {
	priv, err := m.scheme.UnmarshalBinaryPrivateKey(private)
	if err != nil {
		return nil, errs.NewCrypto("invalid_private_key", string(m.algo)+" private key unmarshal failed", err)
	}
	return circlsign.Sign(priv, message, nil), nil
}

func (m mldsaSigner) Verify(public, message, signature []byte) bool {
	pub, err := m.scheme.UnmarshalBinaryPublicKey(public)
	if err != nil {
		return false
	}
	return circlsign.Verify(pub, message, signature, nil)
}

// --- hybrid combiner ----------------------------------------------------------

// HybridSigner concatenates a classical and a pq signature: sig =
// classicalSig‖pqSig. Both public keys are likewise concatenated
// classicalPub‖pqPub. Verify requires both halves to verify; any single
// failure yields false, never a partial accept.
type HybridSigner struct {
	classical Signer
	pq        Signer
	algo      SignatureAlgorithm
}

func NewHybridSigner(classical, pq Signer, algo SignatureAlgorithm) *HybridSigner {
	return &HybridSigner{classical: classical, pq: pq, algo: algo}
}

func (h *HybridSigner) Algorithm() SignatureAlgorithm { return h.algo }
func (h *HybridSigner) PublicKeySize() int            { return h.classical.PublicKeySize() + h.pq.PublicKeySize() }
func (h *HybridSigner) SignatureSize() int            { return h.classical.SignatureSize() + h.pq.SignatureSize() }

func (h *HybridSigner) GenerateKeyPair() (public, private []byte, err error) {
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

func (h *HybridSigner) splitPrivate(private []byte) (cPriv, pPriv []byte, err error) {
	cLen := ed25519.PrivateKeySize
	if h.classical.Algorithm() != SigClassicalEd25519 || len(private) <= cLen {
		return nil, nil, errs.NewCrypto("hybrid_length_mismatch", "hybrid private key too short", nil)
	}
	return private[:cLen], private[cLen:], nil
}

func (h *HybridSigner) splitPublic(public []byte) (cPub, pPub []byte, err error) {
	cLen := h.classical.PublicKeySize()
	want := cLen + h.pq.PublicKeySize()
	if len(public) != want {
		return nil, nil, errs.NewCrypto("hybrid_length_mismatch",
			fmt.Sprintf("hybrid public key length %d != %d", len(public), want), nil)
	}
	return public[:cLen], public[cLen:], nil
}

func (h *HybridSigner) Sign(private, message []byte) ([]byte, error) {
	cPriv, pPriv, err := h.splitPrivate(private)
	if err != nil {
		return nil, err
	}
	cSig, err := h.classical.Sign(cPriv, message)
	if err != nil {
		return nil, err
	}
	pSig, err := h.pq.Sign(pPriv, message)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, cSig...), pSig...), nil
}

// Verify splits signature at the classical scheme's fixed size; if the
// remainder does not exactly match the pq scheme's fixed size the blob is
// malformed and verification fails closed.
func (h *HybridSigner) Verify(public, message, signature []byte) bool {
	cPub, pPub, err := h.splitPublic(public)
	if err != nil {
		return false
	}
	cLen := h.classical.SignatureSize()
	if len(signature) != cLen+h.pq.SignatureSize() {
		return false
	}
	cSig, pSig := signature[:cLen], signature[cLen:]
	return h.classical.Verify(cPub, message, cSig) && h.pq.Verify(pPub, message, pSig)
}
