// Package apperr defines the error taxonomy shared by the fulfillment engine.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes engine errors.
type Kind string

const (
	// KindInvalidRequest marks malformed input: non-positive quantity, bad date.
	KindInvalidRequest Kind = "InvalidRequest"
	// KindUnknownItem marks an item name with no exact catalog match.
	KindUnknownItem Kind = "UnknownItem"
	// KindInvariantViolation marks a ledger append that would break stock or date ordering.
	KindInvariantViolation Kind = "InvariantViolation"
	// KindNotFound marks a lookup of a record that does not exist.
	KindNotFound Kind = "NotFound"
	// KindInternal marks infrastructure failures (storage, locks).
	KindInternal Kind = "Internal"
)

// Error is a categorized engine error.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// InvalidRequest creates an InvalidRequest error.
func InvalidRequest(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// UnknownItem creates an UnknownItem error for the given name.
func UnknownItem(name string) *Error {
	return &Error{Kind: KindUnknownItem, Message: fmt.Sprintf("unknown item %q", name)}
}

// InvariantViolation creates an InvariantViolation error.
func InvariantViolation(format string, args ...any) *Error {
	return &Error{Kind: KindInvariantViolation, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a NotFound error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an infrastructure failure.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Cause: cause}
}

// As extracts an *Error from an error chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

// KindOf returns the kind of err, or KindInternal for uncategorized errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the status code handlers respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindUnknownItem, KindNotFound:
		return http.StatusNotFound
	case KindInvariantViolation:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
