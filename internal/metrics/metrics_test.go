package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSessionAndHandshakeMetricsAreRegistered(t *testing.T) {
	assert.NotNil(t, SessionsCreated)
	assert.NotNil(t, SessionsActive)
	assert.NotNil(t, HandshakesInitiated)
	assert.NotNil(t, HandshakeDuration)
	assert.NotNil(t, HardwareAuthAttempts)
}

func TestMetricsIncrementAndCollect(t *testing.T) {
	SessionsCreated.WithLabelValues("success").Inc()
	SessionsActive.Inc()
	HandshakesInitiated.WithLabelValues("client").Inc()
	HandshakeDuration.WithLabelValues("client_hello").Observe(0.002)
	FramesProcessed.WithLabelValues("file_data", "success").Inc()
	ReplayDrops.WithLabelValues("already_seen").Inc()
	TransfersStarted.WithLabelValues("upload").Inc()
	BytesTransferred.WithLabelValues("upload").Add(1024)
	AuditEventsEmitted.WithLabelValues("file_transfer", "success").Inc()
	CryptoOperations.WithLabelValues("sign", "ed25519").Inc()

	assert.NotZero(t, testutil.CollectAndCount(SessionsCreated))
	assert.NotZero(t, testutil.CollectAndCount(HandshakesInitiated))
	assert.NotZero(t, testutil.CollectAndCount(FramesProcessed))
	assert.NotZero(t, testutil.CollectAndCount(ReplayDrops))
	assert.NotZero(t, testutil.CollectAndCount(TransfersStarted))
	assert.NotZero(t, testutil.CollectAndCount(AuditEventsEmitted))
	assert.NotZero(t, testutil.CollectAndCount(CryptoOperations))
}

func TestHandlerServesRegistry(t *testing.T) {
	h := Handler()
	assert.NotNil(t, h)
}
