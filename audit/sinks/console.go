// Package sinks provides audit.Sink implementations: console, an
// append-only on-disk journal, remote syslog-over-TLS, a SIEM push sink,
// and a PostgreSQL sink.
package sinks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/iyotee/LSFTP/audit"
)

// Console writes one JSON line per event to an io.Writer, defaulting to
// stderr.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a Console sink writing to out, or os.Stderr if out
// is nil.
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stderr
	}
	return &Console{out: out}
}

func (c *Console) Name() string { return "console" }

func (c *Console) Write(e audit.Event) error {
	b, err := json.Marshal(jsonEvent(e))
	if err != nil {
		return fmt.Errorf("console sink: marshal event: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.out.Write(append(b, '\n'))
	return err
}

// eventJSON mirrors audit.Event with JSON tags; kept separate from
// audit.Event so the wire shape here can diverge from the in-memory
// struct layout without touching the audit package.
type eventJSON struct {
	Timestamp        string            `json:"timestamp"`
	EventID          string            `json:"event_id"`
	Action           string            `json:"action"`
	Result           string            `json:"result"`
	Severity         string            `json:"severity"`
	UserID           string            `json:"user_id,omitempty"`
	HardwareID       string            `json:"hardware_id,omitempty"`
	SessionID        string            `json:"session_id,omitempty"`
	FilePath         string            `json:"file_path,omitempty"`
	FileHash         string            `json:"file_hash,omitempty"`
	SourceIP         string            `json:"source_ip,omitempty"`
	BytesTransferred uint64            `json:"bytes_transferred,omitempty"`
	DurationMillis   uint64            `json:"duration_ms,omitempty"`
	ErrorCode        string            `json:"error_code,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	Signature        string            `json:"signature,omitempty"`
}

func jsonEvent(e audit.Event) eventJSON {
	sig := ""
	if len(e.Signature) > 0 {
		sig = fmt.Sprintf("%x", e.Signature)
	}
	return eventJSON{
		Timestamp:        e.Timestamp.UTC().Format("2006-01-02T15:04:05.000000000Z"),
		EventID:          e.EventID,
		Action:           string(e.Action),
		Result:           string(e.Result),
		Severity:         string(e.Severity),
		UserID:           e.UserID,
		HardwareID:       e.HardwareID,
		SessionID:        e.SessionID,
		FilePath:         e.FilePath,
		FileHash:         e.FileHash,
		SourceIP:         e.SourceIP,
		BytesTransferred: e.BytesTransferred,
		DurationMillis:   e.DurationMillis,
		ErrorCode:        e.ErrorCode,
		Metadata:         e.Metadata,
		Signature:        sig,
	}
}
