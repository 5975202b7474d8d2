package errors

import (
	"errors"
	"net/http"
)

// Kind classifies an application error. Validation failures are caught before
// any network call; permission failures mean the requester is not the owner;
// transient failures are backend/network errors the caller may retry.
type Kind string

const (
	KindValidation  Kind = "VALIDATION"
	KindAuth        Kind = "AUTH"
	KindNotFound    Kind = "NOT_FOUND"
	KindPermission  Kind = "PERMISSION"
	KindTransientIO Kind = "TRANSIENT_IO"
)

// AppError is a custom error type that carries an HTTP status code and a
// taxonomy kind alongside the user-facing message.
type AppError struct {
	Code    int    `json:"code"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// NewAppError creates a new AppError
func NewAppError(code int, kind Kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Common errors
var (
	ErrInvalidRequest = NewAppError(http.StatusBadRequest, KindValidation, "Invalid request parameters")
	ErrUnauthorized   = NewAppError(http.StatusUnauthorized, KindAuth, "Unauthorized access")
	ErrForbidden      = NewAppError(http.StatusForbidden, KindPermission, "Access denied")
	ErrNotFound       = NewAppError(http.StatusNotFound, KindNotFound, "Resource not found")
	ErrInternalServer = NewAppError(http.StatusInternalServerError, KindTransientIO, "Internal server error")
	ErrRateLimit      = NewAppError(http.StatusTooManyRequests, KindAuth, "Rate limit exceeded")
)

// Helper functions to create specific errors
func Validation(msg string) *AppError {
	return NewAppError(http.StatusBadRequest, KindValidation, msg)
}

func Auth(msg string) *AppError {
	return NewAppError(http.StatusUnauthorized, KindAuth, msg)
}

func NotFound(msg string) *AppError {
	return NewAppError(http.StatusNotFound, KindNotFound, msg)
}

func Permission(msg string) *AppError {
	return NewAppError(http.StatusForbidden, KindPermission, msg)
}

func TransientIO(msg string) *AppError {
	return NewAppError(http.StatusBadGateway, KindTransientIO, msg)
}

func Conflict(msg string) *AppError {
	return NewAppError(http.StatusConflict, KindValidation, msg)
}

func TooManyRequests(msg string) *AppError {
	return NewAppError(http.StatusTooManyRequests, KindAuth, msg)
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// HTTPStatus extracts the status code from err, defaulting to 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
