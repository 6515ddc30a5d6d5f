package hardwareauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyotee/LSFTP/cryptosuite"
)

func newTestTPM(t *testing.T) *TPMCapability {
	t.Helper()
	digest, err := freshNonce()
	require.NoError(t, err)
	tpm, err := NewTPMCapability(DeviceInfo{DeviceType: DeviceTPM, DeviceID: "tpm-0"}, cryptosuite.SigClassicalEd25519, digest)
	require.NoError(t, err)
	require.NoError(t, tpm.Initialize())
	return tpm
}

func TestTPMAuthenticateProducesVerifiableSignature(t *testing.T) {
	tpm := newTestTPM(t)
	result, err := tpm.Authenticate([]byte("challenge-1"))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.Response)
}

func TestTPMAttestationRoundTrip(t *testing.T) {
	tpm := newTestTPM(t)
	nonce, err := freshNonce()
	require.NoError(t, err)

	att, err := tpm.GenerateAttestation(nonce)
	require.NoError(t, err)

	ok, err := tpm.VerifyAttestation(att)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTPMAttestationRejectsTamperedQuote(t *testing.T) {
	tpm := newTestTPM(t)
	nonce, err := freshNonce()
	require.NoError(t, err)

	att, err := tpm.GenerateAttestation(nonce)
	require.NoError(t, err)

	att.Quote[0] ^= 0xFF
	ok, err := tpm.VerifyAttestation(att)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestTPMUsedBeforeInitializeErrors(t *testing.T) {
	digest, err := freshNonce()
	require.NoError(t, err)
	tpm, err := NewTPMCapability(DeviceInfo{}, cryptosuite.SigClassicalEd25519, digest)
	require.NoError(t, err)

	_, err = tpm.Authenticate([]byte("x"))
	assert.Error(t, err)
}
