// Package result defines the outcome type returned by every collection
// attempt. A Result is exactly one of Success, Error, NotAvailable or
// PermissionDenied; failures are returned as values, never raised.
package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrPermissionDenied marks an authorization failure. Collectors wrap
	// it so Safe can tell a denied query apart from a generic fault.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotAvailable marks a failed precondition such as a platform
	// version that is too old or a feature that is absent.
	ErrNotAvailable = errors.New("not available")
)

// defaultMessage is used when an Error is built without a message.
const defaultMessage = "collection failed"

// Kind identifies which variant of a Result is active.
type Kind int

const (
	KindSuccess Kind = iota
	KindError
	KindNotAvailable
	KindPermissionDenied
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	case KindNotAvailable:
		return "not_available"
	case KindPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// Outcome is the type-erased view of a Result, used where results of
// different payload types are handled together.
type Outcome interface {
	Kind() Kind
	IsSuccess() bool
	Message() string
	Err() error
}

// Result is the outcome of a single collection attempt producing a T.
type Result[T any] struct {
	kind    Kind
	value   T
	err     error
	message string
}

// Success wraps a collected payload.
func Success[T any](value T) Result[T] {
	return Result[T]{kind: KindSuccess, value: value}
}

// Failure builds an Error result. An empty message is replaced with a
// generic one so that Error always carries text.
func Failure[T any](err error, message string) Result[T] {
	if message == "" {
		message = defaultMessage
	}
	return Result[T]{kind: KindError, err: err, message: message}
}

// Unavailable builds a NotAvailable result.
func Unavailable[T any]() Result[T] {
	return Result[T]{kind: KindNotAvailable}
}

// Denied builds a PermissionDenied result.
func Denied[T any]() Result[T] {
	return Result[T]{kind: KindPermissionDenied}
}

// Kind returns the active variant.
func (r Result[T]) Kind() Kind { return r.kind }

// IsSuccess reports whether the result carries a payload.
func (r Result[T]) IsSuccess() bool { return r.kind == KindSuccess }

// Message returns the human-readable error message. Empty unless the
// result is an Error.
func (r Result[T]) Message() string { return r.message }

// Err returns the fault behind an Error result, or nil.
func (r Result[T]) Err() error { return r.err }

// Value returns the payload and true on Success, otherwise the zero
// value and false.
func (r Result[T]) Value() (T, bool) {
	if r.kind != KindSuccess {
		var zero T
		return zero, false
	}
	return r.value, true
}

// String renders the result for logs.
func (r Result[T]) String() string {
	switch r.kind {
	case KindSuccess:
		return fmt.Sprintf("success(%v)", r.value)
	case KindError:
		if r.err != nil {
			return fmt.Sprintf("error(%s: %v)", r.message, r.err)
		}
		return fmt.Sprintf("error(%s)", r.message)
	default:
		return r.kind.String()
	}
}

type resultJSON struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MarshalJSON encodes the result as {"status": ..., "data"|"message"|"error"}.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	out := resultJSON{Status: r.kind.String()}
	switch r.kind {
	case KindSuccess:
		out.Data = r.value
	case KindError:
		out.Message = r.message
		if r.err != nil {
			out.Error = r.err.Error()
		}
	}
	return json.Marshal(out)
}

// Safe runs fn and converts its outcome into a Result. Permission faults
// become PermissionDenied, ErrNotAvailable becomes NotAvailable, and any
// other error or a panic becomes an Error naming description.
func Safe[T any](description string, fn func() (T, error)) (res Result[T]) {
	defer func() {
		if p := recover(); p != nil {
			res = Failure[T](fmt.Errorf("panic: %v", p), failedMessage(description))
		}
	}()

	value, err := fn()
	switch {
	case err == nil:
		return Success(value)
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, fs.ErrPermission):
		return Denied[T]()
	case errors.Is(err, ErrNotAvailable):
		return Unavailable[T]()
	default:
		return Failure[T](err, failedMessage(description))
	}
}

func failedMessage(description string) string {
	if description == "" {
		return defaultMessage
	}
	return "Failed to collect " + description
}
