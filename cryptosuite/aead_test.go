package cryptosuite

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAEADRoundTrip(t *testing.T) {
	for _, algo := range []AEADAlgorithm{AEADChaCha20Poly1305, AEADAES256GCM} {
		t.Run(string(algo), func(t *testing.T) {
			a, err := NewAEAD(algo)
			require.NoError(t, err)

			key := make([]byte, a.KeySize())
			nonce := make([]byte, a.NonceSize())
			_, _ = rand.Read(key)
			_, _ = rand.Read(nonce)

			pt := []byte("chunk of a file being uploaded")
			aad := []byte("frame-header-aad")

			ct, err := a.Seal(key, nonce, pt, aad)
			require.NoError(t, err)
			assert.Len(t, ct, len(pt)+TagSize)

			got, err := a.Open(key, nonce, ct, aad)
			require.NoError(t, err)
			assert.Equal(t, pt, got)

			ct[0] ^= 0xFF
			_, err = a.Open(key, nonce, ct, aad)
			assert.Error(t, err)
		})
	}
}
