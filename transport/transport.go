// Package transport defines the protocol's transport-agnostic connection
// and stream abstractions, so the session and frame layers never depend
// on a specific network transport. The concrete QUIC implementation
// lives in transport/quicstream.
package transport

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"time"
)

// ALPNProtocol is advertised during the TLS handshake underlying the
// transport, letting a multiplexed listener route connections to this
// protocol's handler.
const ALPNProtocol = "lsftp/1"

// Connection creates and accepts streams to and from a single peer.
type Connection interface {
	OpenStream(ctx context.Context) (Stream, error)
	AcceptStream(ctx context.Context) (Stream, error)
	Close() error
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
	IsDialer() bool
}

// Listener accepts incoming peer connections.
type Listener interface {
	Accept(ctx context.Context) (Connection, error)
	Addr() net.Addr
	Close() error
}

// Transport dials and listens for peer Connections over one network
// transport.
type Transport interface {
	Dial(ctx context.Context, addr string, opts DialOptions) (Connection, error)
	Listen(addr string, opts ListenOptions) (Listener, error)
	Close() error
}

// Stream is a bidirectional byte stream: one logical LSFTP frame pipe.
type Stream interface {
	io.Reader
	io.Writer
	StreamID() uint64
	CloseWrite() error
	Close() error
	SetDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// DialOptions configures an outgoing connection attempt.
type DialOptions struct {
	TLSConfig *tls.Config
	Timeout   time.Duration
}

// ListenOptions configures an incoming connection listener.
type ListenOptions struct {
	TLSConfig  *tls.Config
	MaxStreams int
}

// DefaultDialOptions returns the protocol's default dial timeout.
func DefaultDialOptions() DialOptions {
	return DialOptions{Timeout: 30 * time.Second}
}

// DefaultListenOptions returns the protocol's default concurrent-stream
// ceiling, matching MAX_CONCURRENT_CONNECTIONS.
func DefaultListenOptions() ListenOptions {
	return ListenOptions{MaxStreams: 1000}
}
