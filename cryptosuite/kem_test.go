package cryptosuite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassicalECDHKEMRoundTrip(t *testing.T) {
	k, err := NewKEM(KEMClassicalECDH)
	require.NoError(t, err)

	pub, priv, err := k.GenerateKeyPair()
	require.NoError(t, err)

	ct, ssA, err := k.Encapsulate(pub)
	require.NoError(t, err)

	ssB, err := k.Decapsulate(ct, priv)
	require.NoError(t, err)

	assert.Equal(t, ssA, ssB)
	assert.Len(t, ssA, k.SharedSecretSize())
}

func TestMLKEM768RoundTrip(t *testing.T) {
	k, err := NewKEM(KEMMLKEM768)
	require.NoError(t, err)

	pub, priv, err := k.GenerateKeyPair()
	require.NoError(t, err)
	require.Len(t, pub, k.PublicKeySize())

	ct, ssA, err := k.Encapsulate(pub)
	require.NoError(t, err)
	require.Len(t, ct, k.CiphertextSize())

	ssB, err := k.Decapsulate(ct, priv)
	require.NoError(t, err)

	assert.Equal(t, ssA, ssB)
}

func TestHybridKEMRoundTripAndComponentBreakResistance(t *testing.T) {
	k, err := NewKEM(KEMHybridECDHMLKEM768)
	require.NoError(t, err)

	pub, priv, err := k.GenerateKeyPair()
	require.NoError(t, err)

	ct, ssA, err := k.Encapsulate(pub)
	require.NoError(t, err)

	ssB, err := k.Decapsulate(ct, priv)
	require.NoError(t, err)
	assert.Equal(t, ssA, ssB)

	// Corrupting only the classical half of the ciphertext changes the
	// recovered secret without making Decapsulate error: the pq half alone
	// does not determine the combined secret, demonstrating the "broken in
	// one component" case still yields a different overall secret.
	hk := k.(*HybridKEM)
	cLen := hk.classical.CiphertextSize()
	corrupted := append([]byte{}, ct...)
	corrupted[0] ^= 0xFF
	_ = cLen
	ssC, err := k.Decapsulate(corrupted, priv)
	require.NoError(t, err)
	assert.NotEqual(t, ssA, ssC)
}

func TestHybridKEMRejectsLengthMismatch(t *testing.T) {
	k, err := NewKEM(KEMHybridECDHMLKEM768)
	require.NoError(t, err)

	_, _, err = k.Encapsulate([]byte("too short"))
	require.Error(t, err)
}
