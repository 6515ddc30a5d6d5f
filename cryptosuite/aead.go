package cryptosuite

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/iyotee/LSFTP/errs"
)

// TagSize is the authentication tag length appended by both supported AEAD
// primitives.
const TagSize = 16

// AEAD abstracts an authenticated-encryption-with-associated-data primitive.
// Seal returns ciphertext‖tag; Open fails closed on a tag mismatch.
type AEAD interface {
	Algorithm() AEADAlgorithm
	KeySize() int
	NonceSize() int
	Seal(key, nonce, plaintext, aad []byte) (ciphertext []byte, err error)
	Open(key, nonce, ciphertext, aad []byte) (plaintext []byte, err error)
}

// NewAEAD returns the AEAD implementation for algo.
func NewAEAD(algo AEADAlgorithm) (AEAD, error) {
	switch algo {
	case AEADChaCha20Poly1305:
		return chachaAEAD{}, nil
	case AEADAES256GCM:
		return aesGCMAEAD{}, nil
	default:
		return nil, errs.NewCrypto("unknown_aead", fmt.Sprintf("unknown AEAD algorithm %q", algo), nil)
	}
}

type chachaAEAD struct{}

func (chachaAEAD) Algorithm() AEADAlgorithm { return AEADChaCha20Poly1305 }
func (chachaAEAD) KeySize() int             { return chacha20poly1305.KeySize }
func (chachaAEAD) NonceSize() int           { return chacha20poly1305.NonceSize }

func (chachaAEAD) Seal(key, nonce, plaintext, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, errs.NewCrypto("aead_init_failed", "chacha20-poly1305 init failed", err)
	}
	return aead.Seal(nil, nonce, plaintext, aad), nil
}

func (chachaAEAD) Open(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, errs.NewCrypto("aead_init_failed", "chacha20-poly1305 init failed", err)
	}
	pt, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, errs.NewCrypto("tag_mismatch", "chacha20-poly1305 tag verification failed", err)
	}
	return pt, nil
}

type aesGCMAEAD struct{}

func (aesGCMAEAD) Algorithm() AEADAlgorithm { return AEADAES256GCM }
func (aesGCMAEAD) KeySize() int             { return 32 }
func (aesGCMAEAD) NonceSize() int           { return 12 }

func (a aesGCMAEAD) newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.NewCrypto("aead_init_failed", "aes-256-gcm key setup failed", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errs.NewCrypto("aead_init_failed", "aes-256-gcm mode setup failed", err)
	}
	return gcm, nil
}

func (a aesGCMAEAD) Seal(key, nonce, plaintext, aad []byte) ([]byte, error) {
	gcm, err := a.newGCM(key)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(nil, nonce, plaintext, aad), nil
}

func (a aesGCMAEAD) Open(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	gcm, err := a.newGCM(key)
	if err != nil {
		return nil, err
	}
	pt, err := gcm.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, errs.NewCrypto("tag_mismatch", "aes-256-gcm tag verification failed", err)
	}
	return pt, nil
}
