// Package xerrors implements the error taxonomy of the trading system:
// five recoverable-vs-fatal classes, each carrying enough structure for
// the logger to emit fields instead of parsing strings.
package xerrors

import (
	"fmt"
	"time"
)

// Code identifies one of the taxonomy members.
type Code string

const (
	// WireProtocolError: bad framing, unknown msg_type, sequence gap.
	// Session-fatal — the session is closed, the process is not.
	CodeWireProtocol Code = "WIRE_PROTOCOL_ERROR"

	// ResourceExhausted: pool or queue full. Surfaces as a client
	// rejection. The market-data publisher does not use it: Publish
	// discards and counts an update when its queue is full, and a
	// subscriber whose send queue is full is unregistered uncounted.
	CodeResourceExhausted Code = "RESOURCE_EXHAUSTED"

	// RiskRejection: one of the four risk-gate checks failed. Local to
	// the client, never crosses the wire.
	CodeRiskRejection Code = "RISK_REJECTION"

	// BookInvariantViolated: a debug assertion in debug builds; in
	// release builds, log and reject the offending request.
	CodeBookInvariantViolated Code = "BOOK_INVARIANT_VIOLATED"

	// IOWouldBlock is not really an error — the loop retries next tick.
	// Modeled as a Code so call sites can use the same Error type
	// uniformly, but it is never logged at error severity.
	CodeIOWouldBlock Code = "IO_WOULD_BLOCK"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// TradingError is the structured error carried across the system.
type TradingError struct {
	Code      Code
	Severity  Severity
	Message   string
	Scalar    int64 // optional single numeric detail (order id, qty, ...)
	HasScalar bool
	Timestamp time.Time
	Cause     error
}

func (e *TradingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Code, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message)
}

func (e *TradingError) Unwrap() error { return e.Cause }

// WithScalar attaches a single numeric detail, mirroring the hot-path
// logger's "static string plus up to one scalar" record shape.
func (e *TradingError) WithScalar(v int64) *TradingError {
	e.Scalar, e.HasScalar = v, true
	return e
}

func severityFor(code Code) Severity {
	switch code {
	case CodeBookInvariantViolated:
		return SeverityCritical
	case CodeWireProtocol, CodeResourceExhausted:
		return SeverityHigh
	case CodeRiskRejection:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func New(code Code, message string) *TradingError {
	return &TradingError{Code: code, Severity: severityFor(code), Message: message, Timestamp: time.Now()}
}

func Newf(code Code, format string, args ...interface{}) *TradingError {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(err error, code Code, message string) *TradingError {
	if err == nil {
		return nil
	}
	te := New(code, message)
	te.Cause = err
	return te
}

// Is reports whether err is a TradingError of the given code.
func Is(err error, code Code) bool {
	te, ok := err.(*TradingError)
	if !ok {
		return false
	}
	return te.Code == code
}

// CodeOf extracts the Code, or "" if err is not a TradingError.
func CodeOf(err error) Code {
	if te, ok := err.(*TradingError); ok {
		return te.Code
	}
	return ""
}
