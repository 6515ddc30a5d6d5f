// Package errs defines the closed error taxonomy shared across the LSFTP
// protocol stack: crypto, session, transfer, hardware auth and audit
// components all surface failures as a *ProtocolError of one of these kinds.
package errs

import (
	"errors"
	"fmt"
)

// Kind is a closed taxonomy of error categories. New categories require
// extending this list, not adding ad-hoc string codes in calling packages.
type Kind string

const (
	Crypto       Kind = "crypto"
	HardwareAuth Kind = "hardware_auth"
	Protocol     Kind = "protocol"
	Transport    Kind = "transport"
	Auth         Kind = "auth"
	File         Kind = "file"
	Config       Kind = "config"
	Audit        Kind = "audit"
	System       Kind = "system"
	Timeout      Kind = "timeout"
	InvalidInput Kind = "invalid_input"
	Internal     Kind = "internal"
)

// ProtocolError is the concrete error type returned across package
// boundaries. Code is a short machine-readable token (e.g. "chunk_integrity",
// "suite_not_offered") used by audit events and test assertions; Message is
// the human-readable description safe to surface to a peer or operator.
type ProtocolError struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s[%s]: %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Code, e.Message)
}

func (e *ProtocolError) Unwrap() error { return e.Cause }

// Is reports whether target is a *ProtocolError with the same Kind and Code.
// A zero Code on target matches any code of the same Kind.
func (e *ProtocolError) Is(target error) bool {
	var t *ProtocolError
	if !errors.As(target, &t) {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

func newErr(kind Kind, code, message string, cause error) *ProtocolError {
	return &ProtocolError{Kind: kind, Code: code, Message: message, Cause: cause}
}

func New(kind Kind, code, message string) *ProtocolError { return newErr(kind, code, message, nil) }

func Wrap(kind Kind, code, message string, cause error) *ProtocolError {
	return newErr(kind, code, message, cause)
}

// Convenience constructors, one per taxonomy entry.
func NewCrypto(code, msg string, cause error) *ProtocolError       { return newErr(Crypto, code, msg, cause) }
func NewHardwareAuth(code, msg string, cause error) *ProtocolError { return newErr(HardwareAuth, code, msg, cause) }
func NewProtocol(code, msg string, cause error) *ProtocolError     { return newErr(Protocol, code, msg, cause) }
func NewTransport(code, msg string, cause error) *ProtocolError    { return newErr(Transport, code, msg, cause) }
func NewAuth(code, msg string, cause error) *ProtocolError         { return newErr(Auth, code, msg, cause) }
func NewFile(code, msg string, cause error) *ProtocolError         { return newErr(File, code, msg, cause) }
func NewConfig(code, msg string, cause error) *ProtocolError       { return newErr(Config, code, msg, cause) }
func NewAudit(code, msg string, cause error) *ProtocolError        { return newErr(Audit, code, msg, cause) }
func NewSystem(code, msg string, cause error) *ProtocolError       { return newErr(System, code, msg, cause) }
func NewTimeout(code, msg string, cause error) *ProtocolError      { return newErr(Timeout, code, msg, cause) }
func NewInvalidInput(code, msg string, cause error) *ProtocolError { return newErr(InvalidInput, code, msg, cause) }
func NewInternal(code, msg string, cause error) *ProtocolError     { return newErr(Internal, code, msg, cause) }

// KindOf extracts the Kind of err if it is (or wraps) a *ProtocolError.
func KindOf(err error) (Kind, bool) {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

// CodeOf extracts the Code of err if it is (or wraps) a *ProtocolError.
func CodeOf(err error) (string, bool) {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return "", false
}
