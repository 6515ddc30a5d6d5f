package session

import (
	"crypto/sha256"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/iyotee/LSFTP/errs"
)

const (
	sessionKeySize = 32
	macKeySize     = 32
)

// Generation is one key epoch: the symmetric keys used to seal and MAC
// frames for a stretch of the session between rotations.
type Generation struct {
	ID          uint64
	EncryptKey  []byte
	DecryptKey  []byte
	MACKey      []byte
	BytesSealed uint64
}

// KeySchedule tracks the current and, during a rotation's overlap window,
// the previous key generation for one direction of a session.
type KeySchedule struct {
	current  Generation
	previous *Generation
}

// DeriveInitialKeys derives generation 0 from the handshake's shared
// secret and transcript hash via HKDF-Extract(shared secret, salt) then
// HKDF-Expand(info): the salt is a fixed protocol label and the
// transcript hash is the info label, binding the keys to the exact
// handshake that produced them.
func DeriveInitialKeys(sharedSecret, transcriptHash []byte) (*KeySchedule, error) {
	if len(sharedSecret) == 0 {
		return nil, errs.NewCrypto("empty_shared_secret", "cannot derive session keys from empty shared secret", nil)
	}
	prk := hkdf.Extract(sha256.New, sharedSecret, []byte("lsftp handshake v1"))

	gen, err := deriveGenerationKeys(prk, transcriptHash, 0)
	if err != nil {
		return nil, err
	}
	return &KeySchedule{current: gen}, nil
}

func deriveGenerationKeys(prk, info []byte, generation uint64) (Generation, error) {
	genInfo := append(append([]byte{}, info...), encodeUint64(generation)...)

	encReader := hkdf.Expand(sha256.New, prk, append(append([]byte{}, genInfo...), "encrypt"...))
	macReader := hkdf.Expand(sha256.New, prk, append(append([]byte{}, genInfo...), "mac"...))

	enc := make([]byte, sessionKeySize)
	if _, err := io.ReadFull(encReader, enc); err != nil {
		return Generation{}, errs.NewCrypto("key_derivation_failed", "failed to derive encryption key", err)
	}
	mac := make([]byte, macKeySize)
	if _, err := io.ReadFull(macReader, mac); err != nil {
		return Generation{}, errs.NewCrypto("key_derivation_failed", "failed to derive MAC key", err)
	}

	return Generation{ID: generation, EncryptKey: enc, DecryptKey: enc, MACKey: mac}, nil
}

// Current returns the active generation.
func (k *KeySchedule) Current() Generation { return k.current }

// AcceptsGeneration reports whether id is the current generation or, within
// the rotation overlap window, the immediately preceding one.
func (k *KeySchedule) AcceptsGeneration(id uint64) (Generation, bool) {
	if id == k.current.ID {
		return k.current, true
	}
	if k.previous != nil && id == k.previous.ID {
		return *k.previous, true
	}
	return Generation{}, false
}

// Rotate derives the next generation via HKDF over the current
// generation's encryption key, retaining the outgoing generation for the
// caller to drop once its overlap window elapses (ExpirePrevious).
func (k *KeySchedule) Rotate() (Generation, error) {
	nextID := k.current.ID + 1
	prk := hkdf.Extract(sha256.New, k.current.EncryptKey, []byte("rekey"))
	gen, err := deriveGenerationKeys(prk, encodeUint64(nextID), 0)
	if err != nil {
		return Generation{}, err
	}
	gen.ID = nextID

	prev := k.current
	k.previous = &prev
	k.current = gen
	return gen, nil
}

// ExpirePrevious drops the retained previous generation once its overlap
// window has elapsed; frames claiming that generation are rejected after.
func (k *KeySchedule) ExpirePrevious() {
	k.previous = nil
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
