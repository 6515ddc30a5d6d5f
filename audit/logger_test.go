package audit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyotee/LSFTP/cryptosuite"
	"github.com/iyotee/LSFTP/cryptosuite/keymat"
)

type fakeSink struct {
	mu     sync.Mutex
	name   string
	events []Event
	fail   bool
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Write(e Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return assert.AnError
	}
	f.events = append(f.events, e)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func TestEmitFillsEventIDAndTimestampAndWritesToSinks(t *testing.T) {
	sink := &fakeSink{name: "fake"}
	l := New(Config{Sinks: []Sink{sink}})

	require.NoError(t, l.Emit(Event{Action: ActionFileTransfer, Result: ResultSuccess}))
	require.Equal(t, 1, sink.count())
	assert.NotEmpty(t, sink.events[0].EventID)
	assert.False(t, sink.events[0].Timestamp.IsZero())
	assert.Equal(t, SeverityDebug, sink.events[0].Severity)
}

func TestEmitRoutesFailureToSIEMSink(t *testing.T) {
	main := &fakeSink{name: "main"}
	siem := &fakeSink{name: "siem"}
	l := New(Config{Sinks: []Sink{main}, SIEM: siem})

	require.NoError(t, l.Emit(Event{Action: ActionFileTransfer, Result: ResultFailure}))
	require.NoError(t, l.Emit(Event{Action: ActionFileTransfer, Result: ResultSuccess}))

	assert.Equal(t, 2, main.count())
	assert.Equal(t, 1, siem.count())
}

func TestEmitSelfAuditsSinkFailureWithDowngradedSeverity(t *testing.T) {
	failing := &fakeSink{name: "failing", fail: true}
	healthy := &fakeSink{name: "healthy"}
	l := New(Config{Sinks: []Sink{failing, healthy}})

	require.NoError(t, l.Emit(Event{Action: ActionFileTransfer, Result: ResultSuccess}))

	require.Equal(t, 2, healthy.count())
	selfAudit := healthy.events[0]
	assert.Equal(t, ActionSecurityEvent, selfAudit.Action)
	assert.Equal(t, SeverityWarning, selfAudit.Severity)
}

func TestEmitSignsWhenSignerConfigured(t *testing.T) {
	signer, err := cryptosuite.NewSigner(cryptosuite.SigClassicalEd25519)
	require.NoError(t, err)
	pub, priv, err := signer.GenerateKeyPair()
	require.NoError(t, err)
	key, err := keymat.New("classical-ed25519", priv)
	require.NoError(t, err)

	sink := &fakeSink{name: "fake"}
	l := New(Config{Sinks: []Sink{sink}, Signer: NewSigner(signer, key)})

	require.NoError(t, l.Emit(Event{Action: ActionFileTransfer, Result: ResultSuccess}))
	require.Len(t, sink.events, 1)
	sig := sink.events[0].Signature
	require.NotEmpty(t, sig)

	canonical := Canonicalize(sink.events[0])
	assert.True(t, signer.Verify(pub, canonical, sig))
}
