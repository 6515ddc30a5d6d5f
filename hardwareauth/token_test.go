package hardwareauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestToken(t *testing.T) *TokenCapability {
	t.Helper()
	key, err := randomDeviceKey()
	require.NoError(t, err)
	token, err := NewTokenCapability(DeviceInfo{DeviceType: DeviceToken, DeviceID: "token-0"}, key)
	require.NoError(t, err)
	require.NoError(t, token.Initialize())
	return token
}

func TestTokenRejectsWrongKeySize(t *testing.T) {
	_, err := NewTokenCapability(DeviceInfo{}, []byte("too short"))
	assert.Error(t, err)
}

func TestTokenAuthenticateIsDeterministicForSameChallenge(t *testing.T) {
	token := newTestToken(t)
	r1, err := token.Authenticate([]byte("challenge"))
	require.NoError(t, err)
	r2, err := token.Authenticate([]byte("challenge"))
	require.NoError(t, err)
	assert.Equal(t, r1.Response, r2.Response)
}

func TestTokenAttestationRoundTrip(t *testing.T) {
	token := newTestToken(t)
	nonce, err := freshNonce()
	require.NoError(t, err)

	att, err := token.GenerateAttestation(nonce)
	require.NoError(t, err)

	ok, err := token.VerifyAttestation(att)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTokenAttestationFailsForDifferentDevice(t *testing.T) {
	token := newTestToken(t)
	other := newTestToken(t)

	nonce, err := freshNonce()
	require.NoError(t, err)

	att, err := token.GenerateAttestation(nonce)
	require.NoError(t, err)

	ok, err := other.VerifyAttestation(att)
	require.NoError(t, err)
	assert.False(t, ok)
}
