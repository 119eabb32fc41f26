package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseWrite     Phase = "write"     // record and text ingestion
	PhaseRead      Phase = "read"      // record and character reads
	PhaseTranscode Phase = "transcode" // wide to narrow conversion
	PhaseCodepage  Phase = "codepage"  // code page lookup and configuration
)

// Kind categorizes the error
type Kind string

const (
	KindInsufficientTarget Kind = "insufficient_target"
	KindConversion         Kind = "conversion"
	KindAllocation         Kind = "allocation"
	KindTextAppend         Kind = "text_append"
	KindNotFound           Kind = "not_found"
	KindInvalidInput       Kind = "invalid_input"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Codepage uint32
	Detail   string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Codepage != 0 {
		b.WriteString(fmt.Sprintf(" (codepage %d)", e.Codepage))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Codepage sets the active code page identifier
func (b *Builder) Codepage(cp uint32) *Builder {
	b.err.Codepage = cp
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InsufficientTarget creates an insufficient target buffer error
func InsufficientTarget(phase Phase, need, have int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInsufficientTarget,
		Detail: fmt.Sprintf("need %d bytes, have %d", need, have),
	}
}

// Conversion creates a character conversion error
func Conversion(cp uint32, ch rune) *Error {
	return &Error{
		Phase:    PhaseTranscode,
		Kind:     KindConversion,
		Codepage: cp,
		Detail:   fmt.Sprintf("cannot represent U+%04X", ch),
		Value:    ch,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, count int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to reserve %d elements", count),
	}
}

// TextAppend creates a text append failure error
func TextAppend(units int, cause error) *Error {
	return &Error{
		Phase:  PhaseWrite,
		Kind:   KindTextAppend,
		Detail: fmt.Sprintf("failed to append %d text units", units),
		Cause:  cause,
	}
}

// CodepageNotFound creates a missing conversion table error
func CodepageNotFound(cp uint32) *Error {
	return &Error{
		Phase:    PhaseCodepage,
		Kind:     KindNotFound,
		Codepage: cp,
		Detail:   "no conversion table",
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Is reports whether err matches the given phase and kind. An empty phase
// or kind matches any value in that position.
func Is(err error, phase Phase, kind Kind) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	if phase != "" && e.Phase != phase {
		return false
	}
	if kind != "" && e.Kind != kind {
		return false
	}
	return true
}

// IsInsufficientTarget reports whether err is an insufficient target
// condition, regardless of phase
func IsInsufficientTarget(err error) bool {
	return Is(err, "", KindInsufficientTarget)
}
