package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyotee/LSFTP/cryptosuite"
	"github.com/iyotee/LSFTP/cryptosuite/keymat"
	"github.com/iyotee/LSFTP/wire/message"
)

func TestFullHandshakeDerivesMatchingSharedSecret(t *testing.T) {
	offered := []cryptosuite.Suite{cryptosuite.Default()}

	clientState, clientHello, err := BeginClientHandshake(offered, cryptosuite.Suite{})
	require.NoError(t, err)

	kemPrivate, serverHello, err := ServerSelectSuite(clientHello, offered, cryptosuite.Suite{})
	require.NoError(t, err)

	clientSecret, clientReply, err := ClientProcessServerHello(clientState, serverHello)
	require.NoError(t, err)

	serverSecret, err := ServerCompleteHandshake(serverHello.ChosenSuite, kemPrivate, clientReply)
	require.NoError(t, err)

	assert.Equal(t, clientSecret, serverSecret)
}

func TestClientRejectsDowngradedSuite(t *testing.T) {
	offered := []cryptosuite.Suite{cryptosuite.Default()}
	clientState, _, err := BeginClientHandshake(offered, cryptosuite.Default())
	require.NoError(t, err)

	malicious := &message.Handshake{
		ChosenSuite: cryptosuite.Suite{
			Version:   1,
			KEM:       cryptosuite.KEMClassicalECDH,
			Signature: cryptosuite.SigClassicalEd25519,
			AEAD:      cryptosuite.AEADChaCha20Poly1305,
			Hash:      cryptosuite.HashBLAKE3,
		},
		HasChosenSuite:    true,
		KeyExchangePublic: make([]byte, 32),
	}

	_, _, err = ClientProcessServerHello(clientState, malicious)
	assert.Error(t, err)
}

func TestSignAndVerifyTranscriptRoundTrip(t *testing.T) {
	signer, err := cryptosuite.NewSigner(cryptosuite.SigClassicalEd25519)
	require.NoError(t, err)

	pub, priv, err := signer.GenerateKeyPair()
	require.NoError(t, err)

	key, err := keymat.New("classical-ed25519", priv)
	require.NoError(t, err)

	transcript := TranscriptHash([]byte("client-hello"), []byte("server-hello"))

	sig, err := SignTranscript(signer, key, transcript)
	require.NoError(t, err)

	assert.NoError(t, VerifyTranscript(signer, pub, transcript, sig))
}

func TestVerifyTranscriptRejectsTamperedTranscript(t *testing.T) {
	signer, err := cryptosuite.NewSigner(cryptosuite.SigClassicalEd25519)
	require.NoError(t, err)

	pub, priv, err := signer.GenerateKeyPair()
	require.NoError(t, err)

	key, err := keymat.New("classical-ed25519", priv)
	require.NoError(t, err)

	transcript := TranscriptHash([]byte("client-hello"), []byte("server-hello"))
	sig, err := SignTranscript(signer, key, transcript)
	require.NoError(t, err)

	tampered := TranscriptHash([]byte("client-hello"), []byte("server-hello-tampered"))
	assert.Error(t, VerifyTranscript(signer, pub, tampered, sig))
}
