package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveInitialKeysIsDeterministic(t *testing.T) {
	secret := []byte("shared-secret-from-kem-encapsulation")
	transcript := []byte("transcript-hash-bytes")

	a, err := DeriveInitialKeys(secret, transcript)
	require.NoError(t, err)
	b, err := DeriveInitialKeys(secret, transcript)
	require.NoError(t, err)

	assert.Equal(t, a.Current().EncryptKey, b.Current().EncryptKey)
	assert.Equal(t, a.Current().MACKey, b.Current().MACKey)
}

func TestDeriveInitialKeysRejectsEmptySecret(t *testing.T) {
	_, err := DeriveInitialKeys(nil, []byte("transcript"))
	assert.Error(t, err)
}

func TestRotateProducesNewGenerationAndRetainsPrevious(t *testing.T) {
	ks, err := DeriveInitialKeys([]byte("shared-secret"), []byte("transcript"))
	require.NoError(t, err)

	gen0 := ks.Current()
	gen1, err := ks.Rotate()
	require.NoError(t, err)

	assert.NotEqual(t, gen0.EncryptKey, gen1.EncryptKey)
	assert.Equal(t, gen0.ID+1, gen1.ID)

	got, ok := ks.AcceptsGeneration(gen0.ID)
	assert.True(t, ok)
	assert.Equal(t, gen0.EncryptKey, got.EncryptKey)

	got, ok = ks.AcceptsGeneration(gen1.ID)
	assert.True(t, ok)
	assert.Equal(t, gen1.EncryptKey, got.EncryptKey)

	ks.ExpirePrevious()
	_, ok = ks.AcceptsGeneration(gen0.ID)
	assert.False(t, ok)
}
