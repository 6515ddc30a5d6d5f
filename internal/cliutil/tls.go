package cliutil

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"time"

	"github.com/iyotee/LSFTP/errs"
	"github.com/iyotee/LSFTP/transport"
)

// LoadOrGenerateServerCert loads certFile/keyFile if both are set,
// otherwise generates an ephemeral self-signed certificate for local
// testing and loopback deployments.
func LoadOrGenerateServerCert(certFile, keyFile string) (tls.Certificate, error) {
	if certFile != "" && keyFile != "" {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return tls.Certificate{}, errs.NewConfig("cert_load_failed", "failed to load TLS certificate and key", err)
		}
		return cert, nil
	}
	return transport.GenerateSelfSignedCert("lsftp-server", 365*24*time.Hour)
}

// LoadClientRoots reads a PEM-encoded CA bundle from caCertFile, or
// returns nil if caCertFile is empty, trusting the session handshake's
// own authentication instead of TLS certificate verification.
func LoadClientRoots(caCertFile string) (*x509.CertPool, error) {
	if caCertFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(caCertFile)
	if err != nil {
		return nil, errs.NewConfig("ca_cert_read_failed", "failed to read CA certificate bundle", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, errs.NewConfig("ca_cert_parse_failed", "failed to parse CA certificate bundle", err)
	}
	return pool, nil
}
