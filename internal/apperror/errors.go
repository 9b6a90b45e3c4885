package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for common cases
var (
	ErrNotFound   = errors.New("resource not found")
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("internal server error")
	ErrValidation = errors.New("validation error")
)

// Issue is a single field-level validation problem.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError wraps errors with HTTP status and user-friendly message
type AppError struct {
	Err        error   // Original error (for logging)
	Message    string  // User-friendly message
	StatusCode int     // HTTP status code
	Field      string  // Optional field name for validation errors
	Issues     []Issue // Optional list of field-level problems
}

func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	if len(e.Issues) > 0 {
		parts := make([]string, 0, len(e.Issues))
		for _, is := range e.Issues {
			parts = append(parts, is.Field+": "+is.Message)
		}
		return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructor functions for common errors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func ValidationError(field, message string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Field:      field,
		Issues:     []Issue{{Field: field, Message: message}},
	}
}

// Validation builds a 400 error carrying every collected issue.
func Validation(issues ...Issue) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
		Issues:     issues,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "an internal error occurred",
		StatusCode: http.StatusInternalServerError,
	}
}

func Wrap(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// Issues accumulates validation problems. The zero value is ready to use.
type Issues []Issue

// Add records a problem for field.
func (is *Issues) Add(field, message string) {
	*is = append(*is, Issue{Field: field, Message: message})
}

// Addf records a formatted problem for field.
func (is *Issues) Addf(field, format string, args ...any) {
	is.Add(field, fmt.Sprintf(format, args...))
}

// Err returns nil when nothing was recorded, otherwise a validation AppError.
func (is Issues) Err() error {
	if len(is) == 0 {
		return nil
	}
	return Validation(is...)
}

// GetStatusCode extracts HTTP status from error, defaults to 500
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Check sentinel errors
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// GetMessage extracts user message from error
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
