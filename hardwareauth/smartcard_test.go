package hardwareauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyotee/LSFTP/cryptosuite"
)

// fakeCard simulates a PC/SC smart card that signs whatever challenge
// bytes appear in the GENERAL AUTHENTICATE data object and reports
// success (SW=9000), standing in for real reader hardware in tests.
type fakeCard struct {
	signer  cryptosuite.Signer
	private []byte
	fail    bool
	closed  bool
}

func (c *fakeCard) Transmit(apdu []byte) ([]byte, error) {
	if c.fail {
		return []byte{0x6A, 0x82}, nil // SW: file/app not found
	}
	// extract the challenge from the 0x82 TLV inside the 0x7C template
	idx := -1
	for i := 0; i < len(apdu)-1; i++ {
		if apdu[i] == 0x82 {
			idx = i
			break
		}
	}
	if idx == -1 || idx+1 >= len(apdu) {
		return []byte{0x6F, 0x00}, nil
	}
	n := int(apdu[idx+1])
	challenge := apdu[idx+2 : idx+2+n]

	sig, err := c.signer.Sign(c.private, challenge)
	if err != nil {
		return nil, err
	}
	return append(sig, 0x90, 0x00), nil
}

func (c *fakeCard) Close() { c.closed = true }

func newTestSmartCard(t *testing.T, fail bool) (*SmartCardCapability, []byte) {
	t.Helper()
	signer, err := cryptosuite.NewSigner(cryptosuite.SigClassicalEd25519)
	require.NoError(t, err)
	pub, priv, err := signer.GenerateKeyPair()
	require.NoError(t, err)

	card := &fakeCard{signer: signer, private: priv, fail: fail}
	cap := NewSmartCardCapability(DeviceInfo{DeviceType: DeviceSmartCard, DeviceID: "reader-0"}, card, signer, pub, 0x9A)
	return cap, pub
}

func TestSmartCardAuthenticateSucceeds(t *testing.T) {
	cap, _ := newTestSmartCard(t, false)
	require.NoError(t, cap.Initialize())

	result, err := cap.Authenticate([]byte("nonce-bytes-here"))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.Response)
}

func TestSmartCardAuthenticateFailsOnCardRejection(t *testing.T) {
	cap, _ := newTestSmartCard(t, true)
	require.NoError(t, cap.Initialize())

	_, err := cap.Authenticate([]byte("nonce"))
	assert.Error(t, err)
}

func TestSmartCardAttestationRoundTrip(t *testing.T) {
	cap, _ := newTestSmartCard(t, false)
	require.NoError(t, cap.Initialize())

	nonce, err := freshNonce()
	require.NoError(t, err)

	att, err := cap.GenerateAttestation(nonce)
	require.NoError(t, err)

	ok, err := cap.VerifyAttestation(att)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSmartCardUsedBeforeInitializeErrors(t *testing.T) {
	cap := NewSmartCardCapability(DeviceInfo{}, nil, nil, nil, 0)
	_, err := cap.Authenticate([]byte("x"))
	assert.Error(t, err)
}
