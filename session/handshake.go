package session

import (
	"crypto/rand"
	"crypto/sha256"
	"time"

	"github.com/iyotee/LSFTP/cryptosuite"
	"github.com/iyotee/LSFTP/cryptosuite/keymat"
	"github.com/iyotee/LSFTP/errs"
	"github.com/iyotee/LSFTP/internal/metrics"
	"github.com/iyotee/LSFTP/wire/message"
)

// ClientHandshakeState carries what the client must remember between
// emitting its first Handshake frame and processing the server's reply.
type ClientHandshakeState struct {
	ClientRandom  [32]byte
	OfferedSuites []cryptosuite.Suite
	MinSuite      cryptosuite.Suite
}

// BeginClientHandshake generates the client's random nonce and returns the
// first Handshake message to send. offered should be given in the
// client's preference order.
func BeginClientHandshake(offered []cryptosuite.Suite, minSuite cryptosuite.Suite) (*ClientHandshakeState, *message.Handshake, error) {
	metrics.HandshakesInitiated.WithLabelValues("client").Inc()
	start := time.Now()
	defer func() { metrics.HandshakeDuration.WithLabelValues("client_hello").Observe(time.Since(start).Seconds()) }()

	st := &ClientHandshakeState{OfferedSuites: offered, MinSuite: minSuite}
	if _, err := rand.Read(st.ClientRandom[:]); err != nil {
		return nil, nil, errs.NewCrypto("rng_failure", "failed to generate client random", err)
	}
	return st, &message.Handshake{
		Random:        st.ClientRandom,
		OfferedSuites: offered,
	}, nil
}

// ClientProcessServerHello validates the server's chosen suite against the
// client's offer (refusing any downgrade attack), encapsulates against the
// server's KEM public key for the chosen suite, and returns the shared
// secret along with the reply Handshake, carrying the KEM ciphertext, to
// send back to the server.
func ClientProcessServerHello(st *ClientHandshakeState, serverHello *message.Handshake) (sharedSecret []byte, reply *message.Handshake, err error) {
	start := time.Now()
	defer func() { metrics.HandshakeDuration.WithLabelValues("client_finish").Observe(time.Since(start).Seconds()) }()

	if !serverHello.HasChosenSuite {
		metrics.HandshakesFailed.WithLabelValues("policy_rejected").Inc()
		return nil, nil, errs.NewProtocol("missing_chosen_suite", "server handshake reply did not select a suite", nil)
	}
	if err := cryptosuite.ValidateChosen(serverHello.ChosenSuite, st.OfferedSuites, st.MinSuite); err != nil {
		metrics.HandshakesFailed.WithLabelValues("policy_rejected").Inc()
		return nil, nil, err
	}

	kem, err := cryptosuite.NewKEM(serverHello.ChosenSuite.KEM)
	if err != nil {
		metrics.HandshakesFailed.WithLabelValues("policy_rejected").Inc()
		return nil, nil, err
	}

	ciphertext, secret, err := kem.Encapsulate(serverHello.KeyExchangePublic)
	if err != nil {
		metrics.HandshakesFailed.WithLabelValues("invalid").Inc()
		return nil, nil, err
	}

	reply = &message.Handshake{
		Random:            st.ClientRandom,
		ChosenSuite:       serverHello.ChosenSuite,
		HasChosenSuite:    true,
		KeyExchangePublic: ciphertext,
	}
	metrics.HandshakesCompleted.WithLabelValues("success").Inc()
	return secret, reply, nil
}

// ServerSelectSuite runs the server's half of suite negotiation: pick the
// highest-priority suite present in both the client's offer and the
// server's permitted set, generate a fresh KEM keypair for it, and return
// the Handshake reply along with the private key the server must hold
// until it receives the client's encapsulated ciphertext.
func ServerSelectSuite(clientHello *message.Handshake, permitted []cryptosuite.Suite, minSuite cryptosuite.Suite) (kemPrivate []byte, reply *message.Handshake, err error) {
	metrics.HandshakesInitiated.WithLabelValues("server").Inc()
	start := time.Now()
	defer func() { metrics.HandshakeDuration.WithLabelValues("server_hello").Observe(time.Since(start).Seconds()) }()

	chosen, err := cryptosuite.Negotiate(clientHello.OfferedSuites, permitted, minSuite)
	if err != nil {
		metrics.HandshakesFailed.WithLabelValues("policy_rejected").Inc()
		return nil, nil, err
	}

	kem, err := cryptosuite.NewKEM(chosen.KEM)
	if err != nil {
		return nil, nil, err
	}

	pub, priv, err := kem.GenerateKeyPair()
	if err != nil {
		return nil, nil, err
	}

	var serverRandom [32]byte
	if _, err := rand.Read(serverRandom[:]); err != nil {
		return nil, nil, errs.NewCrypto("rng_failure", "failed to generate server random", err)
	}

	reply = &message.Handshake{
		Random:            serverRandom,
		ChosenSuite:       chosen,
		HasChosenSuite:    true,
		KeyExchangePublic: pub,
	}
	return priv, reply, nil
}

// ServerCompleteHandshake decapsulates the client's reply to recover the
// shared secret, using the KEM private key ServerSelectSuite returned.
func ServerCompleteHandshake(chosen cryptosuite.Suite, kemPrivate []byte, clientReply *message.Handshake) ([]byte, error) {
	start := time.Now()
	defer func() { metrics.HandshakeDuration.WithLabelValues("server_finish").Observe(time.Since(start).Seconds()) }()

	kem, err := cryptosuite.NewKEM(chosen.KEM)
	if err != nil {
		metrics.HandshakesFailed.WithLabelValues("policy_rejected").Inc()
		return nil, err
	}
	secret, err := kem.Decapsulate(clientReply.KeyExchangePublic, kemPrivate)
	if err != nil {
		metrics.HandshakesFailed.WithLabelValues("invalid").Inc()
		return nil, err
	}
	metrics.HandshakesCompleted.WithLabelValues("success").Inc()
	return secret, nil
}

// TranscriptHash binds derived session keys to the exact sequence of
// handshake messages exchanged, so a man-in-the-middle who tampers with
// any flight produces keys the legitimate peer cannot also derive.
func TranscriptHash(flights ...[]byte) []byte {
	h := sha256.New()
	for _, f := range flights {
		h.Write(f)
	}
	return h.Sum(nil)
}

// SignTranscript signs a handshake transcript hash under the long-term
// identity key held by key, producing the bytes a peer stores in a
// Handshake message's SignedTranscript field.
func SignTranscript(signer cryptosuite.Signer, key *keymat.PrivateKey, transcript []byte) (signature []byte, err error) {
	useErr := key.Use(func(secret []byte) error {
		signature, err = signer.Sign(secret, transcript)
		return err
	})
	if useErr != nil {
		return nil, useErr
	}
	return signature, err
}

// VerifyTranscript checks a peer's SignedTranscript against the transcript
// hash both sides should have independently derived, using the peer's
// long-term public identity key (typically recovered from the leaf
// certificate in the Handshake message's CertChain).
func VerifyTranscript(signer cryptosuite.Signer, peerPublicKey, transcript, signature []byte) error {
	if !signer.Verify(peerPublicKey, transcript, signature) {
		return errs.NewProtocol("transcript_signature_invalid", "handshake transcript signature did not verify", nil)
	}
	return nil
}
