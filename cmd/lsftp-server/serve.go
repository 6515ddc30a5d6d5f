package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iyotee/LSFTP/audit"
	"github.com/iyotee/LSFTP/config"
	"github.com/iyotee/LSFTP/cryptosuite"
	"github.com/iyotee/LSFTP/errs"
	"github.com/iyotee/LSFTP/hardwareauth"
	"github.com/iyotee/LSFTP/internal/cliutil"
	"github.com/iyotee/LSFTP/internal/metrics"
	"github.com/iyotee/LSFTP/internal/netio"
	"github.com/iyotee/LSFTP/log"
	"github.com/iyotee/LSFTP/session"
	"github.com/iyotee/LSFTP/transfer"
	"github.com/iyotee/LSFTP/transport"
	"github.com/iyotee/LSFTP/transport/quicstream"
	"github.com/iyotee/LSFTP/wire/frame"
	"github.com/iyotee/LSFTP/wire/message"
)

var (
	metricsAddr         string
	logLevel            string
	listenAddr          string
	rootDir             string
	requireHardwareAuth bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start accepting connections",
	Long: `serve loads the server configuration, starts the Prometheus metrics
endpoint, and listens for QUIC connections, servicing each with its own
handshake and file-transfer session.

--listen-addr and --root-dir, along with every other flag on this
command, can also be set via LSFTP_-prefixed environment variables
(e.g. LSFTP_LISTEN_ADDR) or left unset to fall back to the values in
--config.`,
	Example: `  lsftp-server serve --config /etc/lsftp/server.yaml --listen-addr :4433`,
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "address to serve Prometheus metrics on")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "minimum log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&listenAddr, "listen-addr", "", "override the configured QUIC listen address")
	serveCmd.Flags().StringVar(&rootDir, "root-dir", "", "override the configured file transfer root directory")
	serveCmd.Flags().BoolVar(&requireHardwareAuth, "require-hardware-auth", false, "reject handshakes that do not present a verified hardware attestation")

	viper.SetEnvPrefix("lsftp")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlags(serveCmd.Flags())
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		return fmt.Errorf("--config is required")
	}

	cfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return err
	}
	if viper.IsSet("listen-addr") {
		cfg.ListenAddr = viper.GetString("listen-addr")
	}
	if viper.IsSet("root-dir") {
		cfg.RootDir = viper.GetString("root-dir")
	}
	if viper.IsSet("require-hardware-auth") && viper.GetBool("require-hardware-auth") {
		cfg.HardwareAuth.RequireHardwareAuth = true
	}
	if viper.IsSet("log-level") {
		logLevel = viper.GetString("log-level")
	}
	if viper.IsSet("metrics-addr") {
		metricsAddr = viper.GetString("metrics-addr")
	}

	logger := log.NewConsole(parseLevel(logLevel))
	auditLogger, err := cliutil.BuildAuditLogger(cfg.Audit, logger)
	if err != nil {
		return fmt.Errorf("failed to build audit logger: %w", err)
	}

	go func() {
		if err := metrics.StartServer(metricsAddr); err != nil {
			logger.Error("metrics server exited", log.Err(err))
		}
	}()

	cert, err := cliutil.LoadOrGenerateServerCert(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return err
	}
	tlsConf := transport.ServerTLSConfig(cert)

	tr := quicstream.New()
	listener, err := tr.Listen(cfg.ListenAddr, transport.ListenOptions{
		TLSConfig:  tlsConf,
		MaxStreams: cfg.MaxConcurrentConns,
	})
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	defer listener.Close()

	logger.Info("lsftp-server listening", log.String("addr", cfg.ListenAddr), log.String("root", cfg.RootDir))

	sigAlgo := cryptosuite.SignatureAlgorithm(cfg.Crypto.MinSignature)
	identitySigner, identityPublic, _, err := cliutil.LoadOrGenerateIdentityKeyPair(cfg.IdentityCertFile, "", sigAlgo)
	if err != nil {
		return fmt.Errorf("failed to load server identity key: %w", err)
	}

	manager := session.NewManager(logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := make(chan struct{})
	defer close(stop)
	go manager.Run(stop, func(sess *session.Session) {
		logger.Warn("session timed out", log.String("session_id", sess.ID().String()))
		sess.ForceClose()
		manager.Remove(sess.ID())
	})

	srv := &server{
		cfg:            cfg,
		manager:        manager,
		audit:          auditLogger,
		logger:         logger,
		sigAlgo:        sigAlgo,
		identitySigner: identitySigner,
		identityPublic: identityPublic,
	}
	for {
		conn, err := listener.Accept(ctx)
		if err != nil {
			logger.Error("accept failed", log.Err(err))
			continue
		}
		go srv.handleConnection(ctx, conn)
	}
}

// server holds the dependencies one accepted connection needs serviced.
type server struct {
	cfg     *config.ServerConfig
	manager *session.Manager
	audit   *audit.Logger
	logger  log.Logger

	sigAlgo        cryptosuite.SignatureAlgorithm
	identitySigner cryptosuite.Signer
	identityPublic []byte
}

// handleConnection runs the server half of one QUIC connection: opens the
// control stream, performs the handshake, then pumps file-transfer frames
// until the peer disconnects or sends EmergencyStop.
func (s *server) handleConnection(ctx context.Context, conn transport.Connection) {
	defer conn.Close()

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		s.logger.Warn("failed to accept control stream", log.Err(err))
		return
	}
	defer stream.Close()

	sess, err := s.runServerHandshake(stream)
	if err != nil {
		s.logger.Warn("handshake failed", log.Err(err), log.String("peer", conn.RemoteAddr().String()))
		_ = s.audit.Emit(audit.Event{
			Action:    audit.ActionAuthentication,
			Result:    audit.ResultFailure,
			SourceIP:  conn.RemoteAddr().String(),
			ErrorCode: errCode(err),
		})
		return
	}
	defer s.manager.Remove(sess.ID())

	_ = s.audit.Emit(audit.Event{
		Action:    audit.ActionAuthentication,
		Result:    audit.ResultSuccess,
		SessionID: sess.ID().String(),
		SourceIP:  conn.RemoteAddr().String(),
	})

	if err := sess.Transition(session.StateReady); err != nil {
		s.logger.Warn("invalid post-handshake transition", log.Err(err))
		return
	}

	fileServer := transfer.NewFileServer(s.cfg.RootDir, cryptosuite.HashAlgorithm(s.cfg.Crypto.DefaultHash), s.cfg.MaxFileSize, 0)
	c, err := netio.New(stream, sess)
	if err != nil {
		s.logger.Error("failed to build session conn", log.Err(err))
		return
	}

	ch := &connHandler{server: s, conn: c, files: fileServer, sess: sess}
	for {
		payload, err := c.Recv(ctx, frame.DefaultMaxPayloadSize)
		if err != nil {
			s.logger.Info("session ended", log.Err(err), log.String("session_id", sess.ID().String()))
			fileServer.AbortAll()
			return
		}

		if ch.dispatch(ctx, payload) {
			return
		}
	}
}

// connHandler carries the state that spans multiple messages on one
// connection: the FileOpen a client sent before the protocol learns which
// file_id it chose, since FileOpen itself carries no file_id and the
// first FileData for a transfer is what introduces it.
type connHandler struct {
	server *server
	conn   *netio.Conn
	files  *transfer.FileServer
	sess   *session.Session

	pendingOpen *message.FileOpen
}

// dispatch applies one decoded payload, reporting whether the connection
// should now be torn down (EmergencyStop).
func (ch *connHandler) dispatch(ctx context.Context, payload message.Payload) bool {
	s := ch.server
	switch m := payload.(type) {
	case *message.FileOpen:
		switch m.Metadata["op"] {
		case "download":
			ch.serveDownload(ctx, m)
		case "verify":
			ch.serveVerify(ctx, m)
		default:
			ch.pendingOpen = m
		}
	case *message.FileData:
		if err := ch.files.HandleFileData(m); err != nil {
			if ch.pendingOpen != nil {
				if _, openErr := ch.files.HandleFileOpen(m.FileID, ch.pendingOpen); openErr != nil {
					s.logger.Warn("deferred file open rejected", log.Err(openErr))
					_ = s.audit.Emit(audit.Event{
						Action:    audit.ActionSecurityEvent,
						Result:    audit.ResultDenied,
						SessionID: ch.sess.ID().String(),
						FilePath:  ch.pendingOpen.Path,
						ErrorCode: errCode(openErr),
					})
					return false
				}
				ch.pendingOpen = nil
				err = ch.files.HandleFileData(m)
			}
			if err != nil {
				s.logger.Warn("file data rejected", log.Err(err))
				code := errCode(err)
				if code == "chunk_hash_mismatch" {
					code = "chunk_integrity"
				}
				_ = s.audit.Emit(audit.Event{
					Action:    audit.ActionFileTransfer,
					Result:    audit.ResultFailure,
					SessionID: ch.sess.ID().String(),
					ErrorCode: code,
				})
			}
		}
	case *message.FileClose:
		result, err := ch.files.HandleFileClose(m)
		outcome := audit.ResultSuccess
		if err != nil {
			outcome = audit.ResultFailure
			s.logger.Warn("file close failed", log.Err(err))
		}
		_ = s.audit.Emit(audit.Event{
			Action:           audit.ActionFileTransfer,
			Result:           outcome,
			SessionID:        ch.sess.ID().String(),
			BytesTransferred: result.BytesWritten,
			DurationMillis:   uint64(result.Duration.Milliseconds()),
		})
	case *message.Heartbeat:
		ch.sess.RecordHeartbeatReceived()
		_ = ch.conn.Send(ctx, &message.Heartbeat{
			SessionID:    ch.sess.ID(),
			HealthStatus: message.HealthHealthy,
			Timestamp:    uint64(time.Now().Unix()),
		})
	case *message.EmergencyStop:
		n := ch.files.AbortAll()
		s.logger.Warn("emergency stop received", log.Int("aborted_transfers", n), log.String("reason", m.Reason))
		ch.sess.ForceClose()
		return true
	case *message.PolicyUpdate:
		s.logger.Info("policy update received", log.String("policy_id", m.PolicyID))
	case *message.DirList:
		entries, err := ch.files.ListDir(m.Path)
		if err != nil {
			s.logger.Warn("directory listing rejected", log.Err(err), log.String("path", m.Path))
			entries = nil
		}
		_ = ch.conn.Send(ctx, &message.DirList{Path: m.Path, Entries: entries})
	default:
		s.logger.Warn("unhandled message type", log.Any("type", payload.Type()))
	}
	return false
}

// serveDownload answers a client's download request (a FileOpen carrying
// Metadata["op"]="download") by streaming the requested file back over
// the same connection via transfer.Upload, which the download direction
// reuses unmodified: reading, hashing and chunking a file for a peer is
// the same job regardless of which side initiated the transfer.
func (ch *connHandler) serveDownload(ctx context.Context, req *message.FileOpen) {
	s := ch.server
	f, info, err := ch.files.OpenForRead(req.Path)
	if err != nil {
		s.logger.Warn("download request rejected", log.Err(err), log.String("path", req.Path))
		return
	}
	defer f.Close()

	hasher, err := cryptosuite.NewHash(s.cfg.Crypto.MinSuite().Hash)
	if err != nil {
		s.logger.Error("failed to build hasher for download", log.Err(err))
		return
	}

	start := time.Now()
	result, err := transfer.Upload(ctx, ch.conn, hasher, req.Path, uint64(info.Size()), uint32(info.Mode().Perm()), nil, f, nil, 0)
	outcome := audit.ResultSuccess
	var bytesSent uint64
	if err != nil {
		outcome = audit.ResultFailure
		s.logger.Warn("download failed", log.Err(err), log.String("path", req.Path))
	} else {
		bytesSent = result.BytesTransferred
	}
	_ = s.audit.Emit(audit.Event{
		Action:           audit.ActionFileTransfer,
		Result:           outcome,
		SessionID:        ch.sess.ID().String(),
		FilePath:         req.Path,
		BytesTransferred: bytesSent,
		DurationMillis:   uint64(time.Since(start).Milliseconds()),
	})
}

// serveVerify answers a client's integrity-check request (a FileOpen
// carrying Metadata["op"]="verify") with a FileOpen reply whose
// DeclaredSize and DeclaredHash carry the server's own computed hash of
// the file, reusing those fields rather than inventing a reply type.
func (ch *connHandler) serveVerify(ctx context.Context, req *message.FileOpen) {
	s := ch.server
	hasher, err := cryptosuite.NewHash(s.cfg.Crypto.MinSuite().Hash)
	if err != nil {
		s.logger.Error("failed to build hasher for verify", log.Err(err))
		return
	}
	size, sum, err := ch.files.HashFile(req.Path, hasher)
	if err != nil {
		s.logger.Warn("verify request rejected", log.Err(err), log.String("path", req.Path))
		_ = ch.conn.Send(ctx, &message.FileOpen{Path: req.Path})
		return
	}
	_ = ch.conn.Send(ctx, &message.FileOpen{Path: req.Path, DeclaredSize: size, DeclaredHash: sum})
}

// runServerHandshake negotiates a suite, authenticates the client's
// long-term identity and (when required) its hardware attestation, and
// derives session keys over the plaintext control stream, registering the
// resulting Session with the server's manager.
func (s *server) runServerHandshake(stream transport.Stream) (*session.Session, error) {
	clientHelloPayload, err := netio.RecvHandshake(stream, frame.DefaultMaxPayloadSize)
	if err != nil {
		return nil, err
	}
	clientHello, ok := clientHelloPayload.(*message.Handshake)
	if !ok {
		return nil, errs.NewProtocol("unexpected_message", "expected Handshake as first message", nil)
	}

	if len(clientHello.CertChain) == 0 {
		return nil, errs.NewProtocol("missing_cert_chain", "client handshake did not present a certificate chain", nil)
	}
	clientIdentityPub := clientHello.CertChain[0]

	if s.cfg.HardwareAuth.RequireHardwareAuth {
		if err := cliutil.VerifyHandshakeAttestation(clientHello.HardwareAttestation, clientHello.Random, s.sigAlgo); err != nil {
			return nil, err
		}
	}

	kemPrivate, serverHello, err := session.ServerSelectSuite(clientHello, s.cfg.Crypto.PermittedSuites(), s.cfg.Crypto.MinSuite())
	if err != nil {
		return nil, err
	}
	serverHello.CertChain = [][]byte{s.identityPublic}

	if s.cfg.HardwareAuth.RequireHardwareAuth {
		capability, err := hardwareauth.BuildCapability(s.cfg.HardwareAuth, s.sigAlgo)
		if err != nil {
			return nil, errs.NewHardwareAuth("hardware_auth_unavailable", "server hardware authentication is required but unavailable", err)
		}
		att, err := capability.GenerateAttestation(serverHello.Random)
		if err != nil {
			return nil, err
		}
		if serverHello.HardwareAttestation, err = hardwareauth.EncodeAttestation(att); err != nil {
			return nil, err
		}
	}

	if err := netio.SendHandshake(stream, 1, serverHello); err != nil {
		return nil, err
	}

	clientReplyPayload, err := netio.RecvHandshake(stream, frame.DefaultMaxPayloadSize)
	if err != nil {
		return nil, err
	}
	clientReply, ok := clientReplyPayload.(*message.Handshake)
	if !ok {
		return nil, errs.NewProtocol("unexpected_message", "expected Handshake as third flight", nil)
	}

	preReplyTranscript := session.TranscriptHash(clientHello.Encode(), serverHello.Encode())
	if err := session.VerifyTranscript(s.identitySigner, clientIdentityPub, preReplyTranscript, clientReply.SignedTranscript); err != nil {
		return nil, err
	}

	sharedSecret, err := session.ServerCompleteHandshake(serverHello.ChosenSuite, kemPrivate, clientReply)
	if err != nil {
		return nil, err
	}

	transcript := session.TranscriptHash(clientHello.Encode(), serverHello.Encode(), clientReply.Encode())
	keys, err := session.DeriveInitialKeys(sharedSecret, transcript)
	if err != nil {
		return nil, err
	}

	sess := s.manager.Create(serverHello.ChosenSuite, session.DefaultConfig(), keys)
	return sess, nil
}

func errCode(err error) string {
	if pe, ok := err.(*errs.ProtocolError); ok {
		return pe.Code
	}
	return "unknown"
}

func parseLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
