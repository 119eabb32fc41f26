// Package errors provides structured error types for the conbuf library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type carries the active code page and a cause chain
// where that context exists.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseTranscode, errors.KindConversion).
//		Codepage(932).
//		Detail("encode U+%04X", r).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InsufficientTarget(errors.PhaseTranscode, need, have)
//	err := errors.CodepageNotFound(id)
//
// All errors implement the standard error interface and support errors.Is/As.
// KindInsufficientTarget is an internal control-flow condition: the transcoder
// uses it to fall back from bulk conversion to character-wise conversion and
// never returns it to callers.
package errors
