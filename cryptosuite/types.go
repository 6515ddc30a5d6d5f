// Package cryptosuite implements the protocol's pluggable cryptography: KEM,
// signature, AEAD and hash primitives with classical, post-quantum and
// hybrid variants, modeled as value-typed algorithm selections rather than a
// dynamic-dispatch class hierarchy. Hybrid variants compose two primitive
// instances; they never subclass a primitive.
package cryptosuite

import "github.com/iyotee/LSFTP/errs"

// ProtocolVersion is the only wire version this implementation speaks.
const ProtocolVersion uint8 = 1

// KEMAlgorithm identifies a key-encapsulation mechanism.
type KEMAlgorithm string

const (
	KEMClassicalECDH      KEMAlgorithm = "classical-ecdh"
	KEMHybridECDHMLKEM768 KEMAlgorithm = "hybrid-classical+ml-kem-768"
	KEMMLKEM768           KEMAlgorithm = "ml-kem-768"
	KEMMLKEM1024          KEMAlgorithm = "ml-kem-1024"
)

// SignatureAlgorithm identifies a signature scheme.
type SignatureAlgorithm string

const (
	SigClassicalEd25519     SignatureAlgorithm = "classical-ed25519"
	SigHybridEd25519MLDSA65 SignatureAlgorithm = "hybrid-ed25519+ml-dsa-65"
	SigMLDSA65              SignatureAlgorithm = "ml-dsa-65"
	SigMLDSA87              SignatureAlgorithm = "ml-dsa-87"
)

// AEADAlgorithm identifies an authenticated-encryption primitive.
type AEADAlgorithm string

const (
	AEADChaCha20Poly1305 AEADAlgorithm = "chacha20-poly1305"
	AEADAES256GCM        AEADAlgorithm = "aes-256-gcm"
)

// HashAlgorithm identifies a general-purpose hash primitive. Both options
// produce a fixed 32-byte digest.
type HashAlgorithm string

const (
	HashBLAKE3   HashAlgorithm = "blake3"
	HashSHA3_256 HashAlgorithm = "sha3-256"
)

// Suite is a complete algorithm selection for one session. Both peers must
// converge on a single Suite during the handshake (see Negotiate).
type Suite struct {
	Version   uint8
	KEM       KEMAlgorithm
	Signature SignatureAlgorithm
	AEAD      AEADAlgorithm
	Hash      HashAlgorithm
}

// Default returns the suite used when nothing else is configured: hybrid
// classical+post-quantum KEM and signatures, ChaCha20-Poly1305 AEAD and
// BLAKE3 hashing.
func Default() Suite {
	return Suite{
		Version:   ProtocolVersion,
		KEM:       KEMHybridECDHMLKEM768,
		Signature: SigHybridEd25519MLDSA65,
		AEAD:      AEADChaCha20Poly1305,
		Hash:      HashBLAKE3,
	}
}

func (s Suite) Equal(o Suite) bool {
	return s.Version == o.Version && s.KEM == o.KEM && s.Signature == o.Signature &&
		s.AEAD == o.AEAD && s.Hash == o.Hash
}

// kemStrength and sigStrength rank algorithms by the quantum resistance they
// provide, so that Negotiate can refuse a suite weaker than a peer's
// configured minimum. Hybrid and pq-only both resist a quantum adversary;
// hybrid additionally keeps classical protection if the pq component is
// later broken, so it outranks pq-only.
var kemStrength = map[KEMAlgorithm]int{
	KEMClassicalECDH:      0,
	KEMMLKEM768:           1,
	KEMMLKEM1024:          1,
	KEMHybridECDHMLKEM768: 2,
}

var sigStrength = map[SignatureAlgorithm]int{
	SigClassicalEd25519:     0,
	SigMLDSA65:              1,
	SigMLDSA87:              1,
	SigHybridEd25519MLDSA65: 2,
}

// meetsMinimum reports whether s is at least as strong as min on both the
// KEM and signature axes.
func (s Suite) meetsMinimum(min Suite) bool {
	return kemStrength[s.KEM] >= kemStrength[min.KEM] && sigStrength[s.Signature] >= sigStrength[min.Signature]
}

// Negotiate selects the suite the server will use for a handshake. offered
// is the client's candidate list in the client's preference order;
// permitted is the set the server (or client validating a server reply) is
// willing to accept. The first entry of offered that also appears in
// permitted wins: this satisfies "highest priority in both offered and
// locally permitted sets, tie-break client's order" because a server
// configures permitted in its own preference order and walks offered only
// to find the client's most-preferred acceptable suite.
//
// If min is non-zero (Version != 0), the chosen suite must meet or exceed it
// on both the KEM and signature axes or Negotiate fails with
// errs.Crypto("suite_not_offered", ...), refusing any downgrade below the
// caller's declared floor.
func Negotiate(offered, permitted []Suite, min Suite) (Suite, error) {
	permittedSet := make(map[Suite]struct{}, len(permitted))
	for _, p := range permitted {
		permittedSet[p] = struct{}{}
	}

	for _, o := range offered {
		if _, ok := permittedSet[o]; !ok {
			continue
		}
		if min.Version != 0 && !o.meetsMinimum(min) {
			continue
		}
		return o, nil
	}
	return Suite{}, errs.NewCrypto("suite_not_offered", "no mutually acceptable crypto suite", nil)
}

// ValidateChosen re-checks a suite a peer claims to have chosen: it must be
// a member of offered (never invented out of thin air) and must meet min.
// The client runs this against the server's Handshake reply to detect a
// downgrade attack.
func ValidateChosen(chosen Suite, offered []Suite, min Suite) error {
	found := false
	for _, o := range offered {
		if o.Equal(chosen) {
			found = true
			break
		}
	}
	if !found {
		return errs.NewCrypto("suite_not_offered", "server chose a suite the client never offered", nil)
	}
	if min.Version != 0 && !chosen.meetsMinimum(min) {
		return errs.NewCrypto("suite_not_offered", "server chose a suite below the configured minimum", nil)
	}
	return nil
}
