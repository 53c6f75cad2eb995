package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

// The closed set of error codes surfaced by the service.
const (
	ErrCodeUnauthenticated   ErrorCode = "UNAUTHENTICATED"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeBadRequest        ErrorCode = "BAD_REQUEST"
	ErrCodePasswordHash      ErrorCode = "PASSWORD_HASH_ERROR"
	ErrCodeDuplicateKey      ErrorCode = "DUPLICATE_KEY"
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// codeStatus is the single source of truth for code -> HTTP status.
// Every code declared above must appear here.
var codeStatus = map[ErrorCode]int{
	ErrCodeUnauthenticated:   http.StatusUnauthorized,
	ErrCodeForbidden:         http.StatusForbidden,
	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeBadRequest:        http.StatusBadRequest,
	ErrCodePasswordHash:      http.StatusInternalServerError,
	ErrCodeDuplicateKey:      http.StatusConflict,
	ErrCodeRateLimitExceeded: http.StatusTooManyRequests,
	ErrCodeInternal:          http.StatusInternalServerError,
}

// Codes returns every known error code.
func Codes() []ErrorCode {
	return []ErrorCode{
		ErrCodeUnauthenticated,
		ErrCodeForbidden,
		ErrCodeNotFound,
		ErrCodeBadRequest,
		ErrCodePasswordHash,
		ErrCodeDuplicateKey,
		ErrCodeRateLimitExceeded,
		ErrCodeInternal,
	}
}

// Error represents a structured error with code, message, and optional details
type Error struct {
	Code    ErrorCode              // Unique error code
	Message string                 // Human-readable error message
	Details map[string]interface{} // Optional additional details
	Err     error                  // Wrapped underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *Error) HTTPStatusCode() int {
	return MapErrorCodeToHTTPStatus(e.Code)
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with code and message
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
// Returns ErrCodeInternal if the error is not a structured Error
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// GetDetails extracts the details from an error
// Returns nil if the error is not a structured Error
func GetDetails(err error) map[string]interface{} {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// MapErrorCodeToHTTPStatus maps error codes to HTTP status codes.
// Unknown codes map to 500.
func MapErrorCodeToHTTPStatus(code ErrorCode) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NotFound creates a "not found" error
func NotFound(resourceType, identifier string) *Error {
	return Newf(ErrCodeNotFound, "%s not found: %s", resourceType, identifier).
		WithDetail("resource", resourceType)
}

// BadRequest creates a "bad request" error carrying the reason
func BadRequest(reason string) *Error {
	return New(ErrCodeBadRequest, reason)
}

// Unauthenticated creates an error for a request that carries no usable credential
func Unauthenticated(message string) *Error {
	return New(ErrCodeUnauthenticated, message)
}

// Forbidden creates a "forbidden" error
func Forbidden(message string) *Error {
	return New(ErrCodeForbidden, message)
}

// PasswordHash wraps a hashing or verification failure
func PasswordHash(err error, message string) *Error {
	if err == nil {
		return New(ErrCodePasswordHash, message)
	}
	return Wrap(err, ErrCodePasswordHash, message)
}

// DuplicateKey reports a uniqueness violation on field.
func DuplicateKey(field string, err error) *Error {
	e := &Error{
		Code:    ErrCodeDuplicateKey,
		Message: fmt.Sprintf("duplicate %s", field),
		Err:     err,
	}
	return e.WithDetail("field", field)
}

// IsDuplicateField reports whether err is a DuplicateKey error on field.
func IsDuplicateField(err error, field string) bool {
	if !IsCode(err, ErrCodeDuplicateKey) {
		return false
	}
	f, _ := GetDetails(err)["field"].(string)
	return f == field
}

// Internal creates an "internal error"
func Internal(message string) *Error {
	return New(ErrCodeInternal, message)
}

// InternalWrap wraps an internal error
func InternalWrap(err error, message string) *Error {
	return Wrap(err, ErrCodeInternal, message)
}

// RateLimitExceeded creates a "rate limit exceeded" error
func RateLimitExceeded(retryAfter string) *Error {
	err := New(ErrCodeRateLimitExceeded, "rate limit exceeded")
	if retryAfter != "" {
		err.WithDetail("retry_after", retryAfter)
	}
	return err
}
