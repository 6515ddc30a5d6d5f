package cryptosuite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEd25519RoundTrip(t *testing.T) {
	s, err := NewSigner(SigClassicalEd25519)
	require.NoError(t, err)

	pub, priv, err := s.GenerateKeyPair()
	require.NoError(t, err)

	msg := []byte("file transfer handshake transcript")
	sig, err := s.Sign(priv, msg)
	require.NoError(t, err)
	assert.Len(t, sig, s.SignatureSize())

	assert.True(t, s.Verify(pub, msg, sig))
	assert.False(t, s.Verify(pub, []byte("tampered"), sig))
}

func TestMLDSA65RoundTrip(t *testing.T) {
	s, err := NewSigner(SigMLDSA65)
	require.NoError(t, err)

	pub, priv, err := s.GenerateKeyPair()
	require.NoError(t, err)

	msg := []byte("hybrid upload FileClose transcript")
	sig, err := s.Sign(priv, msg)
	require.NoError(t, err)

	assert.True(t, s.Verify(pub, msg, sig))
}

func TestHybridSignatureRequiresBothComponents(t *testing.T) {
	s, err := NewSigner(SigHybridEd25519MLDSA65)
	require.NoError(t, err)
	hs := s.(*HybridSigner)

	pub, priv, err := s.GenerateKeyPair()
	require.NoError(t, err)

	msg := []byte("hybrid signature test message")
	sig, err := s.Sign(priv, msg)
	require.NoError(t, err)
	assert.True(t, s.Verify(pub, msg, sig))

	// Flip a byte in the classical half: overall verification must fail even
	// though the pq half is untouched and would verify on its own.
	cLen := hs.classical.SignatureSize()
	corrupted := append([]byte{}, sig...)
	corrupted[0] ^= 0xFF
	assert.False(t, s.Verify(pub, msg, corrupted))

	// Flip a byte in the pq half: overall verification must also fail even
	// though the classical half is untouched.
	corrupted2 := append([]byte{}, sig...)
	corrupted2[cLen] ^= 0xFF
	assert.False(t, s.Verify(pub, msg, corrupted2))
}

func TestHybridSignatureRejectsWrongLength(t *testing.T) {
	s, err := NewSigner(SigHybridEd25519MLDSA65)
	require.NoError(t, err)

	pub, priv, err := s.GenerateKeyPair()
	require.NoError(t, err)

	sig, err := s.Sign(priv, []byte("msg"))
	require.NoError(t, err)

	assert.False(t, s.Verify(pub, []byte("msg"), sig[:len(sig)-1]))
}
