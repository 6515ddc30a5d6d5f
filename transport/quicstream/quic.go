// Package quicstream implements transport.Transport over QUIC, the
// protocol's default wire transport.
package quicstream

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/iyotee/LSFTP/errs"
	"github.com/iyotee/LSFTP/transport"
)

// Default QUIC session parameters; conservative relative to the
// teacher's values to suit a file-transfer workload of long-lived
// streams rather than many short ones.
const (
	DefaultMaxIdleTimeout     = 60 * time.Second
	DefaultKeepAlivePeriod    = 20 * time.Second
	DefaultMaxIncomingStreams = 1000
)

// QUICTransport implements transport.Transport over github.com/quic-go/quic-go.
type QUICTransport struct {
	mu        sync.Mutex
	listeners []*Listener
	closed    bool
}

func New() *QUICTransport { return &QUICTransport{} }

func (t *QUICTransport) Dial(ctx context.Context, addr string, opts transport.DialOptions) (transport.Connection, error) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return nil, errs.NewTransport("transport_closed", "QUIC transport is closed", nil)
	}

	tlsConf := opts.TLSConfig
	if tlsConf == nil {
		return nil, errs.NewTransport("tls_config_required", "a TLS config is required to dial over QUIC", nil)
	}
	if len(tlsConf.NextProtos) == 0 {
		tlsConf = tlsConf.Clone()
		tlsConf.NextProtos = []string{transport.ALPNProtocol}
	}

	quicConf := &quic.Config{
		MaxIdleTimeout:     DefaultMaxIdleTimeout,
		KeepAlivePeriod:    DefaultKeepAlivePeriod,
		MaxIncomingStreams: DefaultMaxIncomingStreams,
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	conn, err := quic.DialAddr(ctx, addr, tlsConf, quicConf)
	if err != nil {
		return nil, errs.NewTransport("quic_dial_failed", "QUIC dial failed", err)
	}
	return &Connection{conn: conn, isDialer: true}, nil
}

func (t *QUICTransport) Listen(addr string, opts transport.ListenOptions) (transport.Listener, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, errs.NewTransport("transport_closed", "QUIC transport is closed", nil)
	}

	tlsConf := opts.TLSConfig
	if tlsConf == nil {
		return nil, errs.NewTransport("tls_config_required", "a TLS config is required for a QUIC listener", nil)
	}
	if len(tlsConf.NextProtos) == 0 {
		tlsConf = tlsConf.Clone()
		tlsConf.NextProtos = []string{transport.ALPNProtocol}
	}

	maxStreams := opts.MaxStreams
	if maxStreams <= 0 {
		maxStreams = DefaultMaxIncomingStreams
	}

	quicConf := &quic.Config{
		MaxIdleTimeout:     DefaultMaxIdleTimeout,
		KeepAlivePeriod:    DefaultKeepAlivePeriod,
		MaxIncomingStreams: int64(maxStreams),
	}

	ln, err := quic.ListenAddr(addr, tlsConf, quicConf)
	if err != nil {
		return nil, errs.NewTransport("quic_listen_failed", "QUIC listen failed", err)
	}

	l := &Listener{listener: ln}
	t.listeners = append(t.listeners, l)
	return l, nil
}

func (t *QUICTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	var lastErr error
	for _, l := range t.listeners {
		if err := l.Close(); err != nil {
			lastErr = err
		}
	}
	t.listeners = nil
	return lastErr
}

// Listener implements transport.Listener over a QUIC listener.
type Listener struct {
	mu       sync.Mutex
	listener *quic.Listener
	closed   bool
}

func (l *Listener) Accept(ctx context.Context) (transport.Connection, error) {
	conn, err := l.listener.Accept(ctx)
	if err != nil {
		return nil, errs.NewTransport("quic_accept_failed", "QUIC accept failed", err)
	}
	return &Connection{conn: conn, isDialer: false}, nil
}

func (l *Listener) Addr() net.Addr { return l.listener.Addr() }

func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.listener.Close()
}

// Connection implements transport.Connection over a QUIC connection.
type Connection struct {
	conn     quic.Connection
	isDialer bool
}

func (c *Connection) OpenStream(ctx context.Context) (transport.Stream, error) {
	s, err := c.conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, errs.NewTransport("quic_open_stream_failed", "failed to open QUIC stream", err)
	}
	return &Stream{stream: s}, nil
}

func (c *Connection) AcceptStream(ctx context.Context) (transport.Stream, error) {
	s, err := c.conn.AcceptStream(ctx)
	if err != nil {
		return nil, errs.NewTransport("quic_accept_stream_failed", "failed to accept QUIC stream", err)
	}
	return &Stream{stream: s}, nil
}

func (c *Connection) Close() error { return c.conn.CloseWithError(0, "connection closed") }

func (c *Connection) LocalAddr() net.Addr  { return c.conn.LocalAddr() }
func (c *Connection) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }
func (c *Connection) IsDialer() bool       { return c.isDialer }

// Stream implements transport.Stream over a QUIC stream.
type Stream struct {
	stream quic.Stream
}

func (s *Stream) StreamID() uint64 { return uint64(s.stream.StreamID()) }

func (s *Stream) Read(p []byte) (int, error)  { return s.stream.Read(p) }
func (s *Stream) Write(p []byte) (int, error) { return s.stream.Write(p) }

func (s *Stream) CloseWrite() error { return s.stream.Close() }

func (s *Stream) Close() error {
	s.stream.CancelRead(0)
	return s.stream.Close()
}

func (s *Stream) SetDeadline(t time.Time) error      { return s.stream.SetDeadline(t) }
func (s *Stream) SetReadDeadline(t time.Time) error  { return s.stream.SetReadDeadline(t) }
func (s *Stream) SetWriteDeadline(t time.Time) error { return s.stream.SetWriteDeadline(t) }
