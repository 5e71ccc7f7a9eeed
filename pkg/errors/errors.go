// Package errors defines the typed failures raised while talking to a
// follower-data supplier and while decoding what it returns.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	// Transport failures
	ErrorTypeUnreachable ErrorType = "unreachable"
	ErrorTypeHTTPFailure ErrorType = "http_failure"

	// Data failures
	ErrorTypeMissingField    ErrorType = "missing_field"
	ErrorTypeMalformedRecord ErrorType = "malformed_record"

	ErrorTypeConfig  ErrorType = "config"
	ErrorTypeUnknown ErrorType = "unknown"
)

// Error carries the failure class plus whatever detail the class needs:
// the HTTP status for http_failure and the field name for missing_field.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Field   string
	Err     error
}

func (e *Error) Error() string {
	switch e.Type {
	case ErrorTypeHTTPFailure:
		return fmt.Sprintf("%s (status %d): %s", e.Type, e.Code, e.Message)
	case ErrorTypeMissingField:
		return fmt.Sprintf("%s %q: %s", e.Type, e.Field, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unreachable wraps a network-level failure (DNS, refused connection, timeout).
func Unreachable(err error) *Error {
	return &Error{
		Type:    ErrorTypeUnreachable,
		Message: "supplier unreachable",
		Err:     err,
	}
}

// HTTPFailure reports a non-2xx response.
func HTTPFailure(status int, body string) *Error {
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return &Error{
		Type:    ErrorTypeHTTPFailure,
		Message: body,
		Code:    status,
	}
}

// MissingField reports an absent field in an otherwise valid record.
func MissingField(field string) *Error {
	return &Error{
		Type:    ErrorTypeMissingField,
		Message: "field absent from record",
		Field:   field,
	}
}

// Malformed reports a payload or record that could not be decoded.
func Malformed(msg string, err error) *Error {
	return &Error{
		Type:    ErrorTypeMalformedRecord,
		Message: msg,
		Err:     err,
	}
}

// Config reports an invalid or missing configuration value.
func Config(msg string) *Error {
	return &Error{
		Type:    ErrorTypeConfig,
		Message: msg,
	}
}

// IsType reports whether err (or anything it wraps) is an *Error of type t.
func IsType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	return IsType(err, ErrorTypeUnreachable) || IsType(err, ErrorTypeHTTPFailure)
}

// IsData reports whether err is a data failure.
func IsData(err error) bool {
	return IsType(err, ErrorTypeMissingField) || IsType(err, ErrorTypeMalformedRecord)
}

// Class names the family err belongs to: "transport", "data", or "unknown"
// for errors outside the taxonomy.
func Class(err error) string {
	switch {
	case IsTransport(err):
		return "transport"
	case IsData(err):
		return "data"
	default:
		return string(ErrorTypeUnknown)
	}
}

// StatusCode returns the HTTP status carried by an http_failure, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Type == ErrorTypeHTTPFailure {
		return e.Code
	}
	return 0
}

// IsRetryable checks if an error type should be retried.
// Every transport failure is retried, as is a page body that failed to decode
// (truncated responses are transient). Config errors never are.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeUnreachable, ErrorTypeHTTPFailure, ErrorTypeMalformedRecord:
		return true
	default:
		return false
	}
}
