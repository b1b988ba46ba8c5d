// Package errs defines the error taxonomy shared by every component of the
// network I/O core. Kinds are abstract (a classification, not a type
// hierarchy enforced by the compiler); callers compare with errors.Is against
// the sentinel Kind values, or unwrap to reach an underlying cause.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the taxonomy's buckets.
type Kind int

const (
	// InvalidArgument covers malformed file ids, bad config values,
	// ill-formed URLs, and headers outside the expected size.
	InvalidArgument Kind = iota
	// OutOfMemory covers allocation failures during pool init or buffer
	// shrink.
	OutOfMemory
	// NotFound covers a timer entry already removed, or a file id with no
	// live connection path.
	NotFound
	// Timeout covers connect-, read-, write-, or idle-timeout.
	Timeout
	// NetworkError covers any OS-level I/O failure; use NewNetworkError to
	// attach the operation and peer.
	NetworkError
	// Protocol covers framing or status-code mismatches.
	Protocol
	// PoolClosed covers an API call made after shutdown.
	PoolClosed
	// Unavailable covers task pool exhaustion or "no storage server
	// available".
	Unavailable
	// Fatal covers an unrecoverable internal invariant violation; a worker
	// observing this must abort rather than continue.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case OutOfMemory:
		return "out_of_memory"
	case NotFound:
		return "not_found"
	case Timeout:
		return "timeout"
	case NetworkError:
		return "network_error"
	case Protocol:
		return "protocol"
	case PoolClosed:
		return "pool_closed"
	case Unavailable:
		return "unavailable"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is a classified error carrying an optional cause chain.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, SomeKindSentinel) work without requiring every
// caller to construct a matching *Error first.
func (e *Error) Is(target error) bool {
	var k *kindSentinel
	if errors.As(target, &k) {
		return e.Kind == k.kind
	}
	return false
}

// kindSentinel is a lightweight error whose only purpose is to be an
// errors.Is target for a Kind, e.g. errors.Is(err, errs.Sentinel(errs.NotFound)).
type kindSentinel struct{ kind Kind }

func (k *kindSentinel) Error() string { return k.kind.String() }

// Sentinel returns a stand-in error for Kind, suitable as the target of
// errors.Is.
func Sentinel(k Kind) error { return &kindSentinel{kind: k} }

// New constructs a classified error with no cause.
func New(k Kind, message string) error {
	return &Error{Kind: k, Message: message}
}

// Wrap constructs a classified error around an existing cause.
func Wrap(k Kind, message string, cause error) error {
	return &Error{Kind: k, Message: message, Cause: cause}
}

// NetworkCause describes the operation and peer of a NetworkError, mirroring
// spec's NetworkError{op, peer, cause}.
type NetworkCause struct {
	Op    string
	Peer  string
	Cause error
}

func (e *NetworkCause) Error() string {
	if e.Peer == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Peer, e.Cause)
}

func (e *NetworkCause) Unwrap() error { return e.Cause }

// NewNetworkError builds a classified NetworkError carrying op/peer/cause.
func NewNetworkError(op, peer string, cause error) error {
	return &Error{Kind: NetworkError, Message: op, Cause: &NetworkCause{Op: op, Peer: peer, Cause: cause}}
}

// Of reports the Kind of err, walking the Unwrap chain; ok is false if no
// *Error is found.
func Of(err error) (k Kind, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Is reports whether err is classified as k anywhere in its Unwrap chain.
func Is(err error, k Kind) bool {
	if got, ok := Of(err); ok {
		return got == k
	}
	return false
}
