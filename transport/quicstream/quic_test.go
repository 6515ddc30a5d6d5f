package quicstream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyotee/LSFTP/transport"
)

func TestDialRequiresTLSConfig(t *testing.T) {
	tr := New()
	defer tr.Close()

	_, err := tr.Dial(context.Background(), "127.0.0.1:0", transport.DialOptions{})
	assert.Error(t, err)
}

func TestListenRequiresTLSConfig(t *testing.T) {
	tr := New()
	defer tr.Close()

	_, err := tr.Listen("127.0.0.1:0", transport.ListenOptions{})
	assert.Error(t, err)
}

func TestClientServerRoundTrip(t *testing.T) {
	cert, err := transport.GenerateSelfSignedCert("localhost", time.Hour)
	require.NoError(t, err)

	serverTr := New()
	defer serverTr.Close()

	ln, err := serverTr.Listen("127.0.0.1:0", transport.ListenOptions{TLSConfig: transport.ServerTLSConfig(cert)})
	require.NoError(t, err)
	defer ln.Close()

	serverDone := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		conn, err := ln.Accept(ctx)
		if err != nil {
			serverDone <- err
			return
		}
		stream, err := conn.AcceptStream(ctx)
		if err != nil {
			serverDone <- err
			return
		}
		buf := make([]byte, 5)
		if _, err := stream.Read(buf); err != nil {
			serverDone <- err
			return
		}
		if _, err := stream.Write(buf); err != nil {
			serverDone <- err
			return
		}
		serverDone <- nil
	}()

	clientTr := New()
	defer clientTr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := clientTr.Dial(ctx, ln.Addr().String(), transport.DialOptions{TLSConfig: transport.ClientTLSConfig(nil)})
	require.NoError(t, err)
	defer conn.Close()

	stream, err := conn.OpenStream(ctx)
	require.NoError(t, err)

	_, err = stream.Write([]byte("hello"))
	require.NoError(t, err)

	echo := make([]byte, 5)
	_, err = stream.Read(echo)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(echo))

	require.NoError(t, <-serverDone)
}
