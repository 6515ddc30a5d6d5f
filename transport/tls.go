package transport

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"time"

	"github.com/iyotee/LSFTP/errs"
)

// GenerateSelfSignedCert creates an ephemeral ECDSA P-256 certificate for
// local testing and loopback deployments. Production servers should load
// a certificate from a real CA via tls.LoadX509KeyPair instead.
func GenerateSelfSignedCert(commonName string, validFor time.Duration) (cert tls.Certificate, err error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, errs.NewCrypto("keygen_failed", "failed to generate TLS certificate private key", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, errs.NewCrypto("serial_generation_failed", "failed to generate certificate serial number", err)
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber:          serialNumber,
		Subject:               pkix.Name{CommonName: commonName, Organization: []string{"LSFTP"}},
		NotBefore:             now,
		NotAfter:              now.Add(validFor),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{commonName, "localhost"},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return tls.Certificate{}, errs.NewCrypto("cert_creation_failed", "failed to create self-signed TLS certificate", err)
	}

	return tls.Certificate{
		Certificate: [][]byte{certDER},
		PrivateKey:  privateKey,
	}, nil
}

// ServerTLSConfig wraps cert for use by a QUIC (or any TLS 1.3) listener.
func ServerTLSConfig(cert tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS13,
		NextProtos:   []string{ALPNProtocol},
	}
}

// ClientTLSConfig returns a TLS config trusting the given root pool. When
// roots is nil, the session's end-to-end handshake transcript is relied on
// for peer authentication instead of TLS certificate verification: the
// transport is a confidential, authenticated tunnel, but peer identity is
// established by the application-layer handshake running inside it.
func ClientTLSConfig(roots *x509.CertPool) *tls.Config {
	return &tls.Config{
		MinVersion:         tls.VersionTLS13,
		NextProtos:         []string{ALPNProtocol},
		RootCAs:            roots,
		InsecureSkipVerify: roots == nil,
	}
}
