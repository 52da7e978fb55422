package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies a domain error so callers can map it to their own
// error surface without string matching.
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindForbidden
	KindInvalidInput
	KindStateConflict
	KindPrerequisiteUnsatisfied
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidInput:
		return "invalid input"
	case KindStateConflict:
		return "state conflict"
	case KindPrerequisiteUnsatisfied:
		return "prerequisite unsatisfied"
	}
	return "unknown"
}

// Error is a structured domain error: a kind plus a human-readable cause.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func NewNotFoundError(msg string) error {
	return &Error{Kind: KindNotFound, Err: errors.New(msg)}
}

func NewForbiddenError(msg string) error {
	return &Error{Kind: KindForbidden, Err: errors.New(msg)}
}

func NewInvalidInputError(msg string) error {
	return &Error{Kind: KindInvalidInput, Err: errors.New(msg)}
}

func NewStateConflictError(msg string) error {
	return &Error{Kind: KindStateConflict, Err: errors.New(msg)}
}

// Kind reports the ErrorKind of err, unwrapping as needed.
func Kind(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var pe *PrerequisiteError
	if errors.As(err, &pe) {
		return KindPrerequisiteUnsatisfied
	}
	return KindUnknown
}

// PrerequisiteReason narrows down why a prerequisite subject blocked an enrollment.
type PrerequisiteReason string

const (
	PrerequisiteNeverEnrolled PrerequisiteReason = "never-enrolled"
	PrerequisiteIncomplete    PrerequisiteReason = "incomplete-grading"
)

// PrerequisiteError names the blocking subject and term so the caller can tell
// the student exactly what is missing.
type PrerequisiteError struct {
	Reason      PrerequisiteReason
	SubjectCode string
	Term        string
}

func (e *PrerequisiteError) Error() string {
	switch e.Reason {
	case PrerequisiteNeverEnrolled:
		return fmt.Sprintf("prerequisite subject %q has never been enrolled in", e.SubjectCode)
	case PrerequisiteIncomplete:
		return fmt.Sprintf("prerequisite subject %q has ungraded work for term %q", e.SubjectCode, e.Term)
	}
	return fmt.Sprintf("prerequisite subject %q unsatisfied", e.SubjectCode)
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err *ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}
