package dr

import (
	"errors"
	"fmt"
)

// Kind classifies an operation failure for callers such as the HTTP layer
// and the CLI, which map kinds to status codes and exit codes.
type Kind int

const (
	// KindUnknown is the zero value; errors without an explicit kind.
	KindUnknown Kind = iota
	// KindUnauthenticated means the caller carried no verified identity,
	// or presented a bad shared secret.
	KindUnauthenticated
	// KindPermissionDenied means the caller is verified but not allowed.
	KindPermissionDenied
	// KindInvalidArgument means the request input is missing or malformed.
	KindInvalidArgument
	// KindInternal means a downstream dependency failed mid-operation.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindPermissionDenied:
		return "permission-denied"
	case KindInvalidArgument:
		return "invalid-argument"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is an operation failure tagged with a Kind. The message carries the
// failing stage so callers can tell, say, a document-store export failure
// from an archive download failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Error returns the full message; the wrapped cause is already part of it.
func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds a tagged error with a formatted message. An %w verb wraps
// the underlying cause as usual.
func Errorf(kind Kind, format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{Kind: kind, Msg: err.Error(), Err: errors.Unwrap(err)}
}

// KindOf extracts the Kind from err, unwrapping as needed.
// Returns KindUnknown for untagged errors and nil.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
