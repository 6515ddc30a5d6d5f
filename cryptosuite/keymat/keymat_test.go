package keymat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmptySecret(t *testing.T) {
	_, err := New("ml-kem-768", nil)
	assert.Error(t, err)
}

func TestUseAfterDestroyErrors(t *testing.T) {
	pk, err := New("ml-kem-768", []byte("some-secret-key-material"))
	require.NoError(t, err)

	require.NoError(t, pk.Destroy())

	err = pk.Use(func(secret []byte) error { return nil })
	assert.Error(t, err)

	// Destroy is idempotent.
	assert.NoError(t, pk.Destroy())
}

func TestUseSeesOriginalBytesBeforeDestroy(t *testing.T) {
	original := []byte("hybrid-ed25519-ml-dsa-65-secret!")
	pk, err := New("hybrid-ed25519+ml-dsa-65", append([]byte{}, original...))
	require.NoError(t, err)
	defer pk.Destroy()

	var seen []byte
	err = pk.Use(func(secret []byte) error {
		seen = append([]byte{}, secret...)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, original, seen)
}

func TestCloneProducesIndependentContainer(t *testing.T) {
	pk, err := New("ml-kem-768", []byte("first-generation-key-material..."))
	require.NoError(t, err)
	defer pk.Destroy()

	clone, err := pk.Clone()
	require.NoError(t, err)
	defer clone.Destroy()

	require.NoError(t, pk.Destroy())

	// The clone must still be usable after the original is destroyed.
	err = clone.Use(func(secret []byte) error {
		assert.Equal(t, []byte("first-generation-key-material..."), secret)
		return nil
	})
	assert.NoError(t, err)
}
