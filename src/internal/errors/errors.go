// Package errors provides the error taxonomy shared by the session, sync
// and catalog layers.
//
// Usage:
//
//	// In adapters - return typed errors
//	if !exists {
//	    return errors.NotFound("user document not found")
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrLoginRequired) {
//	    prompt()
//	}
//
//	// Or switch on the Code
//	var e *errors.Error
//	if errors.As(err, &e) {
//	    switch e.Code {
//	    case errors.CodeNetworkUnavailable:
//	        offerRetry()
//	    }
//	}
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeLoginRequired      Code = "LOGIN_REQUIRED"
	CodeItemNotFound       Code = "ITEM_NOT_FOUND"
	CodeNetworkUnavailable Code = "NETWORK_UNAVAILABLE"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeEmailAlreadyInUse  Code = "EMAIL_ALREADY_IN_USE"
	CodeNotFound           Code = "NOT_FOUND"
	CodeValidation         Code = "VALIDATION"
	CodeUnknown            Code = "UNKNOWN"
)

// Retryable reports whether an operation failing with this code is safe
// to try again unchanged.
func (c Code) Retryable() bool {
	return c == CodeNetworkUnavailable
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil && e.cause.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Retryable reports whether the failed operation may be retried.
func (e *Error) Retryable() bool {
	return e.Code.Retryable()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrLoginRequired      = &Error{Code: CodeLoginRequired, Message: "login required"}
	ErrItemNotFound       = &Error{Code: CodeItemNotFound, Message: "item not found in watchlist"}
	ErrNetworkUnavailable = &Error{Code: CodeNetworkUnavailable, Message: "network unavailable"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "invalid credentials"}
	ErrEmailAlreadyInUse  = &Error{Code: CodeEmailAlreadyInUse, Message: "email already in use"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrUnknown            = &Error{Code: CodeUnknown, Message: "unknown error"}
)

// LoginRequired creates a login required error.
func LoginRequired(msg string) *Error {
	return &Error{Code: CodeLoginRequired, Message: msg}
}

// ItemNotFound creates an item not found error.
func ItemNotFound(msg string) *Error {
	return &Error{Code: CodeItemNotFound, Message: msg}
}

// ItemNotFoundf creates an item not found error with formatted message.
func ItemNotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeItemNotFound, Message: fmt.Sprintf(format, args...)}
}

// NetworkUnavailable creates a network unavailable error wrapping cause.
func NetworkUnavailable(msg string, cause error) *Error {
	return &Error{Code: CodeNetworkUnavailable, Message: msg, cause: cause}
}

// InvalidCredentials creates an invalid credentials error.
func InvalidCredentials(msg string) *Error {
	return &Error{Code: CodeInvalidCredentials, Message: msg}
}

// EmailAlreadyInUse creates an email already in use error.
func EmailAlreadyInUse(msg string) *Error {
	return &Error{Code: CodeEmailAlreadyInUse, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Unknown creates a catch-all error carrying the collaborator's message.
func Unknown(msg string) *Error {
	return &Error{Code: CodeUnknown, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// Classify maps any error onto the taxonomy. Domain errors pass through
// unchanged; deadlines and transport failures become NETWORK_UNAVAILABLE;
// everything else becomes UNKNOWN carrying the original message.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NetworkUnavailable("request timed out", err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return NetworkUnavailable("request failed", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return NetworkUnavailable("network error", err)
	}

	return Wrap(err, CodeUnknown, err.Error())
}

// CodeOf returns the code of err, or CodeUnknown when err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
