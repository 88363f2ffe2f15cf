// Package theoryerr implements the error taxonomy described for the
// constraint-answer-set theory bridge: model-input errors (surfaced
// before solving starts), overflow, propagation conflicts (recovered
// locally as SAT conflicts, not errors an application sees), and
// internal invariant violations.
package theoryerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a TheoryError so callers can branch without string
// matching.
type Kind int

const (
	// KindModelInput covers front-end problems: unknown theory
	// function, bad guard, non-integer expression, duplicate
	// minimize tuple. The solver must not start.
	KindModelInput Kind = iota
	// KindOverflow covers any domain operation whose intermediate or
	// resulting value leaves the signed 32-bit safe range.
	KindOverflow
	// KindConflict covers an empty domain produced during
	// propagation. Conflicts are not application errors; they are
	// returned to the host as unit/derived clauses, but the type is
	// still useful internally for tests and logging.
	KindConflict
	// KindInvariant covers assertion-style failures in §3's
	// invariants (I1-I4). These are fatal in debug builds.
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindModelInput:
		return "model-input"
	case KindOverflow:
		return "overflow"
	case KindConflict:
		return "conflict"
	case KindInvariant:
		return "invariant-violation"
	default:
		return "unknown"
	}
}

// TheoryError is the error type returned across package boundaries in
// this module, extending the teacher's System/Op/Message shape with a
// Kind so it can participate in errors.Is/As chains.
type TheoryError struct {
	Kind    Kind
	System  string
	Op      string
	Message string
	cause   error
}

func (e *TheoryError) Error() string {
	if e.System != "" {
		return fmt.Sprintf("%s error in %s.%s: %s", e.Kind, e.System, e.Op, e.Message)
	}
	return fmt.Sprintf("%s error in %s: %s", e.Kind, e.Op, e.Message)
}

// Unwrap lets errors.Is/errors.As see through to the wrapped cause.
func (e *TheoryError) Unwrap() error { return e.cause }

// New creates a TheoryError with no wrapped cause.
func New(kind Kind, system, op, message string) *TheoryError {
	return &TheoryError{Kind: kind, System: system, Op: op, Message: message}
}

// Wrap attaches a TheoryError around an existing error, preserving its
// stack via github.com/pkg/errors so the original site of failure is
// not lost across package boundaries.
func Wrap(kind Kind, system, op string, cause error) *TheoryError {
	return &TheoryError{
		Kind:    kind,
		System:  system,
		Op:      op,
		Message: cause.Error(),
		cause:   errors.WithStack(cause),
	}
}

// Is reports whether err is a TheoryError of the given kind.
func Is(err error, kind Kind) bool {
	var te *TheoryError
	if !errors.As(err, &te) {
		return false
	}
	return te.Kind == kind
}
