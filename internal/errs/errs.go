// Package errs implements the closed set of error kinds from the error
// handling design: every fallible core operation returns an error that,
// when it originates in this module, can be unwrapped to an *Error carrying
// one of the Kind values below plus a structured detail payload.
//
// The shape mirrors the teacher's errors.go (an errorLevel enum plus a
// small hierarchy of concrete error structs implementing a common
// interface), generalized from the teacher's three solver-specific levels
// to the nine kinds the spec's error design names.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the closed set of stable error-kind identifiers a caller can
// switch on. New kinds must not be added without updating every switch
// over Kind in the module.
type Kind uint8

const (
	// KindParseError covers malformed versions, ranges, requirements, or
	// package definition files.
	KindParseError Kind = iota + 1
	// KindNotFound covers a package or version absent from repositories.
	KindNotFound
	// KindUnsolvable covers a resolver that exhausted the search space.
	KindUnsolvable
	// KindIterationLimit covers max_iterations exceeded.
	KindIterationLimit
	// KindTimeout covers an operation cancelled via a timeout.
	KindTimeout
	// KindCancelled covers a user-initiated cancellation.
	KindCancelled
	// KindIoError covers a filesystem failure.
	KindIoError
	// KindValidationError covers a package that parsed but failed
	// structural validation.
	KindValidationError
	// KindInternal covers an invariant violation. It should never occur
	// in a released build.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindParseError:
		return "ParseError"
	case KindNotFound:
		return "NotFound"
	case KindUnsolvable:
		return "Unsolvable"
	case KindIterationLimit:
		return "IterationLimit"
	case KindTimeout:
		return "Timeout"
	case KindCancelled:
		return "Cancelled"
	case KindIoError:
		return "IoError"
	case KindValidationError:
		return "ValidationError"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type every core package surfaces. Detail
// carries kind-specific structured data (a conflict list, an offset, a
// path) that a caller may type-assert on when it needs more than the
// message.
type Error struct {
	Kind    Kind
	Msg     string
	Path    string // populated for KindIoError, KindParseError on files
	Offset  int    // populated for KindParseError on strings; -1 if n/a
	Detail  interface{}
	wrapped error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap lets errors.Is/errors.As reach a wrapped cause.
func (e *Error) Unwrap() error { return e.wrapped }

// New builds an *Error with no wrapped cause.
func New(kind Kind, msg string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(msg, args...), Offset: -1}
}

// Wrap builds an *Error around an existing cause, in the teacher's
// pkg/errors idiom (errors.Wrapf(err, "context: %s", detail)).
func Wrap(kind Kind, cause error, msg string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Msg:     fmt.Sprintf(msg, args...),
		Offset:  -1,
		wrapped: errors.WithStack(cause),
	}
}

// AtOffset attaches a parse offset, mirroring §7's "carries offset and
// reason" requirement for ParseError.
func (e *Error) AtOffset(off int) *Error {
	e.Offset = off
	return e
}

// AtPath attaches a filesystem path, for IoError/ParseError-on-file.
func (e *Error) AtPath(path string) *Error {
	e.Path = path
	return e
}

// WithDetail attaches a structured payload (conflict list, etc).
func (e *Error) WithDetail(d interface{}) *Error {
	e.Detail = d
	return e
}

// Is supports errors.Is(err, errs.KindUnsolvable)-style checks by treating
// a bare Kind as a sentinel matched against e.Kind. This is a convenience
// on top of the stdlib error tree, not a replacement for it.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
