// Package apperrors defines the engine's error taxonomy. Every error leaving
// a store, processor or service carries a Kind plus a human-readable message
// so the caller layer can render a response without inspecting internals.
package apperrors

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindUnknown is the zero value, carried by errors that never passed
	// through this package.
	KindUnknown Kind = iota
	// KindValidation marks structurally malformed input. Detected before
	// any domain check or mutation; safe to retry with corrected input.
	KindValidation
	// KindNotFound marks a missing referenced entity. No mutation attempted.
	KindNotFound
	// KindConflict marks a uniqueness or referential-protection violation
	// (duplicate holding pair, duplicate currency code, deleting the base
	// currency or a record still referenced elsewhere).
	KindConflict
	// KindInsufficientFunds marks a buy or withdrawal exceeding the
	// account's cash balance. State is left unchanged.
	KindInsufficientFunds
	// KindInsufficientQuantity marks a sell exceeding the holding's
	// quantity. State is left unchanged.
	KindInsufficientQuantity
	// KindIntegrity marks a write the store rejected despite passing
	// application-level checks; it indicates a logic/schema mismatch and is
	// surfaced as-is rather than swallowed.
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindInsufficientQuantity:
		return "insufficient_quantity"
	case KindIntegrity:
		return "integrity"
	default:
		return "unknown"
	}
}

// Error is the structured error returned by the engine.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with fmt.Sprintf formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from err, or KindUnknown when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the user-facing message from err, falling back to
// err.Error() for untyped errors.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
