// Package domainerrors provides coded errors shared across domains.
//
// Services attach a stable Code at the point a failure is classified;
// transport layers map codes to protocol responses without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for transport mapping and assertions in tests.
type Code string

const (
	CodeInvalidInput Code = "invalid_input"
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal"
)

// Error is a coded error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error. A nil err returns nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability:
// dErrors.Is(err, dErrors.CodeNotFound).
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code carried by err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
