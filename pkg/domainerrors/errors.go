// Package domainerrors defines the coded errors the service layer returns.
// Expected failures (duplicate check-in, unknown key, double check-out) are
// plain result values carrying a code, never panics or control-flow
// exceptions, so transports can render them without guessing.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code tags an error with its domain meaning.
type Code string

const (
	CodeValidation       Code = "validation"
	CodeNotFound         Code = "not_found"
	CodeAlreadyActive    Code = "already_active"
	CodeAlreadyEnded     Code = "already_ended"
	CodeAlreadyPaid      Code = "already_paid"
	CodeStoreUnavailable Code = "store_unavailable"
	CodeBadRequest       Code = "bad_request"
	CodeInternal         Code = "internal"
)

// Error is the tagged error type services return across the API boundary.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// New builds a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds a coded error preserving the underlying cause for errors.Is/As.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// anything that did not come from the domain layer.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the message from err when it is a domain error.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a domain code to the HTTP status the transport layer
// should respond with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyActive, CodeAlreadyEnded, CodeAlreadyPaid:
		return http.StatusConflict
	case CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
