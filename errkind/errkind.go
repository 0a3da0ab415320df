// Package errkind classifies service errors into the taxonomy the call
// router reports across the host boundary. Every error returned by a
// service operation is wrapped in exactly one kind; the wrapped error
// remains reachable through errors.Is / errors.As.
package errkind

import (
	"errors"
	"fmt"
)

// Kind is the error category of a failed call.
type Kind int

const (
	// Unknown is the zero kind for errors that carry no classification.
	Unknown Kind = iota
	// Validation covers malformed payloads, bad hex and malformed scripts.
	Validation
	// Permission covers privileged operations invoked without elevation.
	Permission
	// NotFound covers lookups of unknown assets or records.
	NotFound
	// Arithmetic covers detected overflow and underflow.
	Arithmetic
	// StateConflict covers duplicate ids, self-transfer and self-approval.
	StateConflict
	// InsufficientFunds covers balance or allowance shortfalls.
	InsufficientFunds
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Permission:
		return "permission"
	case NotFound:
		return "not_found"
	case Arithmetic:
		return "arithmetic"
	case StateConflict:
		return "state_conflict"
	case InsufficientFunds:
		return "insufficient_funds"
	default:
		return "unknown"
	}
}

// Error pairs a Kind with an underlying error.
type Error struct {
	Kind Kind
	Err  error
}

// Wrap attaches a kind to err. Wrapping nil returns nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Wrapf attaches a kind to a formatted error.
func Wrapf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Of returns the kind of err, or Unknown if it carries none.
func Of(err error) Kind {
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return Unknown
}
