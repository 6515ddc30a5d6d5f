package cryptosuite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyotee/LSFTP/errs"
)

func TestHashStreamingMatchesOneShot(t *testing.T) {
	for _, algo := range []HashAlgorithm{HashBLAKE3, HashSHA3_256} {
		t.Run(string(algo), func(t *testing.T) {
			h, err := NewHash(algo)
			require.NoError(t, err)

			data := append([]byte("chunk-one:"), make([]byte, 1<<16)...)
			oneShot := h.Sum(data)

			streaming := h.New()
			mid := len(data) / 3
			streaming.Write(data[:mid])
			streaming.Write(data[mid:])
			var got [DigestSize]byte
			copy(got[:], streaming.Sum(nil))

			assert.Equal(t, oneShot, got)
		})
	}
}

func TestNegotiatePicksHighestPriorityInBoth(t *testing.T) {
	offered := []Suite{
		{Version: 1, KEM: KEMHybridECDHMLKEM768, Signature: SigHybridEd25519MLDSA65, AEAD: AEADChaCha20Poly1305, Hash: HashBLAKE3},
		{Version: 1, KEM: KEMMLKEM768, Signature: SigMLDSA65, AEAD: AEADAES256GCM, Hash: HashSHA3_256},
	}
	permitted := []Suite{offered[1]}

	chosen, err := Negotiate(offered, permitted, Suite{})
	require.NoError(t, err)
	assert.Equal(t, offered[1], chosen)
}

func TestNegotiateRejectsDowngradeBelowMinimum(t *testing.T) {
	offered := []Suite{
		{Version: 1, KEM: KEMClassicalECDH, Signature: SigClassicalEd25519, AEAD: AEADChaCha20Poly1305, Hash: HashBLAKE3},
	}
	permitted := offered
	min := Default()

	_, err := Negotiate(offered, permitted, min)
	require.Error(t, err)
}

func TestValidateChosenDetectsDowngradeAttack(t *testing.T) {
	offered := []Suite{Default(), {Version: 1, KEM: KEMMLKEM1024, Signature: SigMLDSA87, AEAD: AEADAES256GCM, Hash: HashSHA3_256}}
	malicious := Suite{Version: 1, KEM: KEMClassicalECDH, Signature: SigClassicalEd25519, AEAD: AEADChaCha20Poly1305, Hash: HashBLAKE3}

	err := ValidateChosen(malicious, offered, Suite{})
	assert.Error(t, err)
	kind, ok := errs.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, errs.Crypto, kind)
}
