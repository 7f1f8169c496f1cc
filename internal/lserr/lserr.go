// Package lserr defines the framework error type shared by the args, layer,
// and stack packages. Callers can distinguish framework failures from
// arbitrary errors, and branch on the failure kind, without string matching.
package lserr

import (
	"errors"
	"fmt"
)

// Kind classifies a framework error.
type Kind int

const (
	// KindType marks configuration/type errors, e.g. inserting a non-Layer
	// into a Stack or a non-descriptor into a Describe-mode container.
	KindType Kind = iota + 1
	// KindValidation marks value validation failures: wrong arity, value not
	// in choices, parse failure.
	KindValidation
	// KindResolution marks failures to locate or resolve a layer: directory
	// not found, manifest missing, handler not registered.
	KindResolution
	// KindPrecondition marks state preconditions: running a non-runnable
	// stack, mode-gated container operations called in the wrong mode.
	KindPrecondition
	// KindRuntime marks failures during execution, e.g. model not
	// initialized or a corrupt stack file.
	KindRuntime
)

// String returns a short label for the kind.
func (k Kind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindValidation:
		return "validation"
	case KindResolution:
		return "resolution"
	case KindPrecondition:
		return "precondition"
	case KindRuntime:
		return "runtime"
	}
	return "unknown"
}

// Error is the framework error. It carries a Kind and optionally wraps a
// cause.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

// New creates a framework error of the given kind.
func New(kind Kind, format string, a ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, a...)}
}

// Wrap creates a framework error of the given kind wrapping cause.
func Wrap(kind Kind, cause error, format string, a ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, a...), Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the cause to errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// IsKind reports whether err is (or wraps) a framework error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

// IsFramework reports whether err is (or wraps) any framework error.
func IsFramework(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
