// Package errors provides structured error types shared by the CLI and the
// HTTP server.
//
// Every error carries a machine-readable [Code] alongside its message, so the
// server can map it to a status and the CLI can print the message without
// the code prefix.
//
// # Error Codes
//
//   - INVALID_*: input validation failures
//   - *_NOT_FOUND: missing resources
//   - *_FAILED: a stage (clone, scan, layout, export) did not complete
//   - NETWORK_ERROR, TIMEOUT: transport failures
//   - INTERNAL_ERROR: anything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidMode, "unknown mode %q", s)
//	if errors.Is(err, errors.ErrCodeInvalidMode) {
//	    // reject the request
//	}
//
//	err := errors.Wrap(errors.ErrCodeCloneFailed, cause, "clone %s", url)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	// Input validation
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidURL    Code = "INVALID_URL"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidMode   Code = "INVALID_MODE"
	ErrCodeInvalidMetric Code = "INVALID_METRIC"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidCanvas Code = "INVALID_CANVAS"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Missing resources
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeTreeNotFound    Code = "TREE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	// Stage failures
	ErrCodeCloneFailed  Code = "CLONE_FAILED"
	ErrCodeScanFailed   Code = "SCAN_FAILED"
	ErrCodeLayoutFailed Code = "LAYOUT_FAILED"
	ErrCodeExportFailed Code = "EXPORT_FAILED"

	// Transport
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without the code prefix. Errors that are
// not an *Error are returned as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps err's code to a response status.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidURL, ErrCodeInvalidPath, ErrCodeInvalidMode,
		ErrCodeInvalidMetric, ErrCodeInvalidFormat, ErrCodeInvalidCanvas, ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeTreeNotFound, ErrCodeSessionNotFound:
		return http.StatusNotFound
	case ErrCodeCloneFailed, ErrCodeNetwork:
		return http.StatusBadGateway
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
