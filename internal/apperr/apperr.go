// Package apperr defines the error taxonomy surfaced by the store and services.
// Codes are strings so they serialize and compare naturally at the boundary.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies a failure.
type Code string

const (
	// CodeNotFound: referenced entity absent or outside the caller's studio.
	CodeNotFound Code = "NOT_FOUND"
	// CodeBadRequest: invalid state transition or malformed input.
	CodeBadRequest Code = "BAD_REQUEST"
	// CodeConflict: the write would violate a uniqueness constraint.
	CodeConflict Code = "CONFLICT"
	// CodeInternal is reported for errors that carry no code.
	CodeInternal Code = "INTERNAL"
)

// Error is a coded error. Two *Error values match under errors.Is when their
// codes are equal, so the sentinels below work as category checks.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound   = &Error{Code: CodeNotFound}
	ErrBadRequest = &Error{Code: CodeBadRequest}
	ErrConflict   = &Error{Code: CodeConflict}
)

func (e *Error) Error() string {
	switch {
	case e.Message == "" && e.Err == nil:
		return string(e.Code)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Message == "":
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NotFound builds a NOT_FOUND error.
func NotFound(format string, args ...any) error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// BadRequest builds a BAD_REQUEST error.
func BadRequest(format string, args ...any) error {
	return &Error{Code: CodeBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a CONFLICT error.
func Conflict(format string, args ...any) error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(code Code, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
