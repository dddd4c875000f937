package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Error codes used across the identity packages
const (
	// Generic errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeConflict     ErrorCode = "CONFLICT"

	// Authentication errors
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid       ErrorCode = "TOKEN_INVALID"
	ErrCodeUpstreamFailure    ErrorCode = "UPSTREAM_FAILURE"

	// Validation conflicts reported as 400 to keep the public API stable
	ErrCodeAlreadyExists     ErrorCode = "ALREADY_EXISTS"
	ErrCodeIncompleteProfile ErrorCode = "INCOMPLETE_PROFILE"

	// Permission errors
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
)

// Error represents a structured error with code, message, and optional details
type Error struct {
	Code    ErrorCode      // Unique error code
	Message string         // Human-readable error message, safe to return to clients
	Details map[string]any // Optional additional details
	Err     error          // Wrapped underlying error, never rendered
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
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
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

// MapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func MapErrorCodeToHTTPStatus(code ErrorCode) int {
	switch code {
	// 400 Bad Request
	case ErrCodeInvalidInput, ErrCodeAlreadyExists, ErrCodeIncompleteProfile:
		return http.StatusBadRequest

	// 401 Unauthorized. Upstream identity provider failures are reported as
	// authentication failures.
	case ErrCodeUnauthorized, ErrCodeInvalidCredentials, ErrCodeTokenExpired,
		ErrCodeTokenInvalid, ErrCodeUpstreamFailure:
		return http.StatusUnauthorized

	// 403 Forbidden
	case ErrCodeForbidden:
		return http.StatusForbidden

	// 404 Not Found
	case ErrCodeNotFound:
		return http.StatusNotFound

	// 409 Conflict
	case ErrCodeConflict:
		return http.StatusConflict

	// 500 Internal Server Error (default)
	case ErrCodeInternal:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the JSON body written for every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// Render writes err as a JSON error response. Structured errors use their own
// status and message; anything else becomes an opaque 500.
func Render(w http.ResponseWriter, r *http.Request, err error) {
	var e *Error
	if !errors.As(err, &e) {
		slog.Error("Unhandled error", "err", err, "path", r.URL.Path)
		e = New(ErrCodeInternal, "Internal server error")
	}
	status := e.HTTPStatusCode()
	if status >= http.StatusInternalServerError && e.Err != nil {
		slog.Error("Request failed", "code", e.Code, "err", e.Err, "path", r.URL.Path)
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Detail: e.Message, Code: string(e.Code)})
}

// Common error constructors for frequently used errors

// NotFound creates a "not found" error
func NotFound(message string) *Error {
	return New(ErrCodeNotFound, message)
}

// AlreadyExists creates an "already exists" error
func AlreadyExists(message string) *Error {
	return New(ErrCodeAlreadyExists, message)
}

// Conflict creates a "conflict" error
func Conflict(message string, err error) *Error {
	return &Error{Code: ErrCodeConflict, Message: message, Err: err}
}

// InvalidInput creates an "invalid input" error
func InvalidInput(message string) *Error {
	return New(ErrCodeInvalidInput, message)
}

// Unauthorized creates an "unauthorized" error
func Unauthorized(message string) *Error {
	return New(ErrCodeUnauthorized, message)
}

// Forbidden creates a "forbidden" error
func Forbidden(message string) *Error {
	return New(ErrCodeForbidden, message)
}

// InternalWrap wraps an internal error
func InternalWrap(err error, message string) *Error {
	return Wrap(err, ErrCodeInternal, message)
}
