// Package errors provides structured error types for lockgraph.
//
// Codes classify failures the way the CLI and the HTTP server report them:
//   - INVALID_*: malformed input, lockfiles or configuration
//   - *NOT_FOUND / NO_DATA: missing resources, including repositories that
//     publish no lockfile
//   - NETWORK_ERROR, STORE_UNAVAILABLE: collaborators that could not be reached
//   - QUERY_FAILED, INTERNAL_ERROR: failures while running
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "unknown chart %q", kind)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // print usage
//	}
//
//	err := errors.Wrap(errors.ErrCodeStoreUnavailable, cause, "connect to %s", uri)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidLockfile Code = "INVALID_LOCKFILE"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeNoData       Code = "NO_DATA"

	// Collaborator errors
	ErrCodeNetwork          Code = "NETWORK_ERROR"
	ErrCodeStoreUnavailable Code = "STORE_UNAVAILABLE"
	ErrCodeQueryFailed      Code = "QUERY_FAILED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
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

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps a code to the status the server replies with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidPath, ErrCodeInvalidLockfile:
		return 400
	case ErrCodeNotFound, ErrCodeFileNotFound, ErrCodeNoData:
		return 404
	case ErrCodeNetwork, ErrCodeStoreUnavailable:
		return 502
	}
	return 500
}
