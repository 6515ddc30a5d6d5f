package sinks

import (
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/iyotee/LSFTP/audit"
	"github.com/iyotee/LSFTP/errs"
)

// syslogFacilityLocal0 through severity mapping follow RFC 5424's PRI
// encoding: PRI = facility*8 + severity.
const syslogFacilityLocal0 = 16

var syslogSeverity = map[audit.Severity]int{
	audit.SeverityDebug:    7,
	audit.SeverityInfo:     6,
	audit.SeverityWarning:  4,
	audit.SeverityError:    3,
	audit.SeverityCritical: 2,
}

// Syslog streams RFC 5424 formatted events to a remote collector over a
// TLS connection, reconnecting lazily on the next Write after a failure.
type Syslog struct {
	mu       sync.Mutex
	addr     string
	tlsConf  *tls.Config
	hostname string
	appName  string
	conn     net.Conn
}

// NewSyslog configures (without yet dialing) a TLS syslog sink for the
// collector at addr. hostname/appName populate the RFC 5424 header.
func NewSyslog(addr, hostname, appName string, tlsConf *tls.Config) *Syslog {
	if tlsConf == nil {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS13}
	}
	return &Syslog{addr: addr, tlsConf: tlsConf, hostname: hostname, appName: appName}
}

func (s *Syslog) Name() string { return "syslog" }

func (s *Syslog) ensureConn() error {
	if s.conn != nil {
		return nil
	}
	conn, err := tls.Dial("tcp", s.addr, s.tlsConf)
	if err != nil {
		return errs.NewAudit("syslog_dial_failed", fmt.Sprintf("failed to connect to syslog collector %q", s.addr), err)
	}
	s.conn = conn
	return nil
}

// Write formats e as an RFC 5424 message and writes it octet-counted
// (RFC 6587) over the TLS connection.
func (s *Syslog) Write(e audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureConn(); err != nil {
		return err
	}

	sev, ok := syslogSeverity[e.Severity]
	if !ok {
		sev = 4
	}
	pri := syslogFacilityLocal0*8 + sev
	msg := fmt.Sprintf("<%d>1 %s %s %s - %s - action=%q result=%q event_id=%q session_id=%q\n",
		pri, e.Timestamp.UTC().Format(time.RFC3339Nano), s.hostname, s.appName, e.EventID,
		e.Action, e.Result, e.EventID, e.SessionID)

	framed := fmt.Sprintf("%d %s", len(msg), msg)
	if _, err := s.conn.Write([]byte(framed)); err != nil {
		_ = s.conn.Close()
		s.conn = nil
		return errs.NewAudit("syslog_write_failed", "failed to write to syslog collector", err)
	}
	return nil
}

func (s *Syslog) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
