package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/iyotee/LSFTP/cryptosuite"
	"github.com/iyotee/LSFTP/cryptosuite/keymat"
	"github.com/iyotee/LSFTP/internal/metrics"
	"github.com/iyotee/LSFTP/log"
)

// Signer optionally signs an event's canonical bytes with the audit key.
type Signer struct {
	algo SignatureAlgorithmLike
	key  *keymat.PrivateKey
}

// SignatureAlgorithmLike mirrors cryptosuite.Signer's shape without
// importing it as a hard dependency of the Signer struct's zero value,
// so an audit.Logger can be constructed without any crypto configured.
type SignatureAlgorithmLike interface {
	Sign(private, message []byte) ([]byte, error)
}

// NewSigner wraps a cryptosuite signer and a memory-locked private key
// for use by Logger.Emit.
func NewSigner(algo cryptosuite.Signer, key *keymat.PrivateKey) *Signer {
	return &Signer{algo: algo, key: key}
}

func (s *Signer) sign(canonical []byte) ([]byte, error) {
	var sig []byte
	err := s.key.Use(func(secret []byte) error {
		out, err := s.algo.Sign(secret, canonical)
		if err != nil {
			return err
		}
		sig = out
		return nil
	})
	return sig, err
}

// Logger canonicalizes, classifies, optionally signs, and fans out audit
// events to every configured sink, additionally routing Failure and
// SecurityEvent events to the SIEM sink.
type Logger struct {
	sinks  []Sink
	siem   Sink
	signer *Signer
	logger log.Logger
}

// Config selects a Logger's sinks and signer.
type Config struct {
	Sinks  []Sink
	SIEM   Sink
	Signer *Signer
	Logger log.Logger
}

// New builds a Logger from cfg.
func New(cfg Config) *Logger {
	l := cfg.Logger
	if l == nil {
		l = log.Nop()
	}
	return &Logger{sinks: cfg.Sinks, siem: cfg.SIEM, signer: cfg.Signer, logger: l}
}

// Emit fills in EventID and Timestamp if unset, classifies severity,
// signs the canonical bytes if a signer is configured, writes to every
// sink, and additionally pushes to the SIEM sink when RequiresSIEM(e) is
// true. Sink write failures are themselves emitted as a SecurityEvent
// audit record with severity downgraded to Warning, rather than
// propagated to the caller.
func (l *Logger) Emit(e Event) error {
	if e.EventID == "" {
		e.EventID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	e.Severity = ClassifySeverity(e.Action, e.Result)
	metrics.AuditEventsEmitted.WithLabelValues(string(e.Action), string(e.Result)).Inc()

	if l.signer != nil {
		sig, err := l.signer.sign(Canonicalize(e))
		if err != nil {
			l.logger.Error("audit event signing failed", log.String("event_id", e.EventID), log.Err(err))
		} else {
			e.Signature = sig
		}
	}

	for _, sink := range l.sinks {
		if err := sink.Write(e); err != nil {
			l.auditSinkFailure(sink, e, err)
		}
	}

	if l.siem != nil && RequiresSIEM(e) {
		metrics.AuditSIEMForwarded.Inc()
		if err := l.siem.Write(e); err != nil {
			l.auditSinkFailure(l.siem, e, err)
		}
	}
	return nil
}

// auditSinkFailure emits a SecurityEvent describing a sink write failure,
// downgraded to Warning severity to prevent a failing sink from cascading
// into a storm of Critical events.
func (l *Logger) auditSinkFailure(sink Sink, original Event, cause error) {
	failure := Event{
		EventID:   uuid.New().String(),
		Timestamp: time.Now(),
		Action:    ActionSecurityEvent,
		Result:    ResultFailure,
		ErrorCode: "sink_write_failed",
		Metadata: map[string]string{
			"sink":           sink.Name(),
			"original_event": original.EventID,
			"cause":          cause.Error(),
		},
		Severity: SeverityWarning,
	}
	l.logger.Warn("audit sink write failed", log.String("sink", sink.Name()), log.Err(cause))
	metrics.AuditSinkFailures.WithLabelValues(sink.Name()).Inc()
	for _, s := range l.sinks {
		if s == sink {
			continue
		}
		_ = s.Write(failure)
	}
}
