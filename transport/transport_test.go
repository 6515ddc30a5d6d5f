package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	assert.Equal(t, 30*time.Second, DefaultDialOptions().Timeout)
	assert.Equal(t, 1000, DefaultListenOptions().MaxStreams)
}

func TestGenerateSelfSignedCertProducesUsableCertificate(t *testing.T) {
	cert, err := GenerateSelfSignedCert("lsftp-test", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, cert.Certificate)
	assert.NotNil(t, cert.PrivateKey)
}

func TestClientTLSConfigSkipsVerificationWithoutRoots(t *testing.T) {
	conf := ClientTLSConfig(nil)
	assert.True(t, conf.InsecureSkipVerify)
	assert.Contains(t, conf.NextProtos, ALPNProtocol)
}
