package keymat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultStoreAndLoadRoundTrip(t *testing.T) {
	v, err := NewVault(t.TempDir())
	require.NoError(t, err)

	key := []byte("top-secret-private-key-bytes")
	require.NoError(t, v.StoreEncrypted("session-1", "hybrid-classical+ml-kem-768", key, "correct horse battery staple"))

	assert.True(t, v.Exists("session-1"))

	algo, got, err := v.LoadDecrypted("session-1", "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, "hybrid-classical+ml-kem-768", algo)
	assert.Equal(t, key, got)
}

func TestVaultLoadWithWrongPassphraseFails(t *testing.T) {
	v, err := NewVault(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, v.StoreEncrypted("session-1", "ml-dsa-65", []byte("secret"), "right-passphrase"))

	_, _, err = v.LoadDecrypted("session-1", "wrong-passphrase")
	assert.ErrorIs(t, err, ErrInvalidPassphrase)
}

func TestVaultLoadMissingKeyFails(t *testing.T) {
	v, err := NewVault(t.TempDir())
	require.NoError(t, err)

	_, _, err = v.LoadDecrypted("does-not-exist", "whatever")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestVaultDeleteAndListKeys(t *testing.T) {
	v, err := NewVault(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, v.StoreEncrypted("a", "ml-kem-768", []byte("secret-a"), "pw"))
	require.NoError(t, v.StoreEncrypted("b", "ml-dsa-65", []byte("secret-b"), "pw"))

	keys := v.ListKeys()
	assert.ElementsMatch(t, []string{"a", "b"}, keys)

	require.NoError(t, v.Delete("a"))
	assert.False(t, v.Exists("a"))
	assert.ElementsMatch(t, []string{"b"}, v.ListKeys())

	err = v.Delete("a")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestVaultRejectsEmptyKeyID(t *testing.T) {
	v, err := NewVault(t.TempDir())
	require.NoError(t, err)

	err = v.StoreEncrypted("", "ml-kem-768", []byte("secret"), "pw")
	assert.ErrorIs(t, err, ErrInvalidKeyID)
}
