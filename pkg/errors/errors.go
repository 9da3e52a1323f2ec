// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package errors provides structured error types for cite-engine.
//
// Error codes separate configuration mistakes (fatal before any work starts)
// from per-package resolution failures (degraded, never fatal) and from
// serialization and rendering failures (fatal at their stage). Callers test
// categories with Is and extract codes with GetCode.
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	// Configuration errors: invalid arguments, raised before any work begins.
	ErrCodeInvalidOutput    Code = "INVALID_OUTPUT"
	ErrCodeInvalidSelection Code = "INVALID_SELECTION"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"

	// Resolution errors: isolated per package, degrade to a synthetic record.
	ErrCodePackageNotFound Code = "PACKAGE_NOT_FOUND"
	ErrCodeNetwork         Code = "NETWORK_ERROR"

	// Output errors.
	ErrCodeSerialize Code = "SERIALIZE_ERROR"
	ErrCodeRender    Code = "RENDER_ERROR"

	// Internal errors.
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err carries the given error code anywhere in its chain.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from err, or "" if err is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsConfiguration reports whether err is a configuration error, i.e. one
// that must abort the run before any pipeline work.
func IsConfiguration(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidOutput, ErrCodeInvalidSelection, ErrCodeInvalidFormat:
		return true
	}
	return false
}
