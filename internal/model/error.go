package model

import (
	"errors"
	"fmt"
)

// ErrorResponse is the consistent JSON structure for all API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ErrorKind classifies a failure so the operator is told what to do next.
type ErrorKind string

const (
	KindCredentialLoad      ErrorKind = "CredentialLoadError"
	KindInvalidAddress      ErrorKind = "InvalidAddress"
	KindInvalidAmount       ErrorKind = "InvalidAmount"
	KindDerivationExhausted ErrorKind = "DerivationExhausted"
	KindNetworkUnreachable  ErrorKind = "NetworkUnreachable"
	KindTimeout             ErrorKind = "Timeout"
	KindSimulationFailed    ErrorKind = "SimulationFailed"
	KindUnauthorized        ErrorKind = "Unauthorized"
	KindInsufficientFunds   ErrorKind = "InsufficientFunds"
)

// Reason narrows down a SimulationFailed rejection when the program says why.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonAlreadyInitialized Reason = "config account already initialized"
	ReasonNotInitialized     Reason = "config account not initialized"
	ReasonInvalidFee         Reason = "fee rate rejected by program"
)

// Error is the tagged failure surfaced to the top-level run.
type Error struct {
	Kind   ErrorKind
	Reason Reason
	Op     string
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Reason != ReasonNone {
		msg += ": " + string(e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind and Reason so callers can compare against sentinel values
// such as &Error{Kind: KindTimeout}.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == ReasonNone || t.Reason == e.Reason
}

// Transient reports whether re-invoking the same action may succeed.
func (e *Error) Transient() bool {
	return e.Kind == KindNetworkUnreachable || e.Kind == KindTimeout
}

// NewError creates a tagged error. err may be nil.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf creates a tagged error with a formatted cause.
func Errorf(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first tagged error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ReasonOf returns the reason of the first tagged error in err's chain.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ReasonNone
}

// IsKind checks if err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
