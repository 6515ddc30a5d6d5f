package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/google/uuid"

	"github.com/iyotee/LSFTP/config"
	"github.com/iyotee/LSFTP/cryptosuite"
	"github.com/iyotee/LSFTP/errs"
	"github.com/iyotee/LSFTP/hardwareauth"
	"github.com/iyotee/LSFTP/internal/cliutil"
	"github.com/iyotee/LSFTP/internal/netio"
	"github.com/iyotee/LSFTP/log"
	"github.com/iyotee/LSFTP/session"
	"github.com/iyotee/LSFTP/transport"
	"github.com/iyotee/LSFTP/transport/quicstream"
	"github.com/iyotee/LSFTP/wire/frame"
	"github.com/iyotee/LSFTP/wire/message"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Dial the server and run the handshake, then exit",
	Long: `connect is a smoke-test command: it dials the configured server,
negotiates a crypto suite, and reports the chosen suite before closing
the connection.`,
	RunE: runConnect,
}

func init() {
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	cfg, conn, _, sess, err := dialAndHandshake(cmd)
	if err != nil {
		return err
	}
	defer conn.Close()

	suite := sess.Suite()
	fmt.Printf("connected to %s: suite=%s/%s/%s/%s\n",
		cfg.ServerAddr, suite.KEM, suite.Signature, suite.AEAD, suite.Hash)
	return nil
}

// dialAndHandshake loads the client configuration named by --config,
// dials the server over QUIC, opens the control stream, and runs the
// client half of the handshake, returning the ready netio.Conn and the
// underlying session alongside it.
func dialAndHandshake(cmd *cobra.Command) (*config.ClientConfig, transport.Connection, *netio.Conn, *session.Session, error) {
	ctx := context.Background()

	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		return nil, nil, nil, nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.LoadClientConfig(configPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	roots, err := cliutil.LoadClientRoots(cfg.CACertFile)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	tlsConf := transport.ClientTLSConfig(roots)

	tr := quicstream.New()
	conn, err := tr.Dial(ctx, cfg.ServerAddr, transport.DialOptions{TLSConfig: tlsConf})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to dial server: %w", err)
	}

	stream, err := conn.OpenStream(ctx)
	if err != nil {
		conn.Close()
		return nil, nil, nil, nil, fmt.Errorf("failed to open control stream: %w", err)
	}

	sess, err := runClientHandshake(stream, cfg)
	if err != nil {
		conn.Close()
		return nil, nil, nil, nil, err
	}

	c, err := netio.New(stream, sess)
	if err != nil {
		conn.Close()
		return nil, nil, nil, nil, err
	}
	return cfg, conn, c, sess, nil
}

// runClientHandshake runs the four-flight handshake over the plaintext
// control stream: it presents the client's long-term identity and, when
// configured, a hardware attestation; checks the server's own attestation
// when required; signs the pre-reply transcript with the client's identity
// key so the server can authenticate flight 3; and derives the session's
// initial key schedule from the completed transcript.
func runClientHandshake(stream transport.Stream, cfg *config.ClientConfig) (*session.Session, error) {
	sigAlgo := cryptosuite.SignatureAlgorithm(cfg.Crypto.MinSignature)
	signer, identityPublic, identityPrivate, err := cliutil.LoadOrGenerateIdentityKeyPair(cfg.IdentityCertFile, cfg.IdentityKeyFile, sigAlgo)
	if err != nil {
		return nil, fmt.Errorf("failed to load client identity key: %w", err)
	}

	st, hello, err := session.BeginClientHandshake(cfg.Crypto.OfferedSuites(), cfg.Crypto.MinSuite())
	if err != nil {
		return nil, err
	}
	hello.CertChain = [][]byte{identityPublic}

	if cfg.HardwareAuth.RequireHardwareAuth {
		capability, err := hardwareauth.BuildCapability(cfg.HardwareAuth, sigAlgo)
		if err != nil {
			return nil, errs.NewHardwareAuth("hardware_auth_unavailable", "client hardware authentication is required but unavailable", err)
		}
		att, err := capability.GenerateAttestation(hello.Random)
		if err != nil {
			return nil, err
		}
		if hello.HardwareAttestation, err = hardwareauth.EncodeAttestation(att); err != nil {
			return nil, err
		}
	}

	if err := netio.SendHandshake(stream, 0, hello); err != nil {
		return nil, err
	}

	serverHelloPayload, err := netio.RecvHandshake(stream, frame.DefaultMaxPayloadSize)
	if err != nil {
		return nil, err
	}
	serverHello, ok := serverHelloPayload.(*message.Handshake)
	if !ok {
		return nil, errs.NewProtocol("unexpected_message", "expected Handshake as second flight", nil)
	}

	if len(serverHello.CertChain) == 0 {
		return nil, errs.NewProtocol("missing_cert_chain", "server handshake reply carried no certificate chain", nil)
	}

	if cfg.HardwareAuth.RequireHardwareAuth {
		if err := cliutil.VerifyHandshakeAttestation(serverHello.HardwareAttestation, serverHello.Random, sigAlgo); err != nil {
			return nil, err
		}
	}

	sharedSecret, reply, err := session.ClientProcessServerHello(st, serverHello)
	if err != nil {
		return nil, err
	}

	if identityPrivate != nil {
		preReplyTranscript := session.TranscriptHash(hello.Encode(), serverHello.Encode())
		sig, err := session.SignTranscript(signer, identityPrivate, preReplyTranscript)
		if err != nil {
			return nil, err
		}
		reply.SignedTranscript = sig
	}

	if err := netio.SendHandshake(stream, 1, reply); err != nil {
		return nil, err
	}

	transcript := session.TranscriptHash(hello.Encode(), serverHello.Encode(), reply.Encode())
	keys, err := session.DeriveInitialKeys(sharedSecret, transcript)
	if err != nil {
		return nil, err
	}

	sess := session.New(uuid.New(), serverHello.ChosenSuite, session.DefaultConfig(), keys, log.Nop())
	if err := sess.Transition(session.StateReady); err != nil {
		return nil, err
	}
	return sess, nil
}
