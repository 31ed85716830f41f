// Package errors defines the typed errors handlers return and renders them
// as JSON responses.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType classifies an AppError
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeInternal     ErrorType = "INTERNAL"
	ErrorTypeDatabase     ErrorType = "DATABASE"
)

// AppError is an error with a client-facing message and an HTTP status.
// The cause, when set, is shown to clients as the details text.
type AppError struct {
	Type       ErrorType
	Message    string
	Cause      error
	StackTrace string
	HTTPStatus int
}

func newAppError(t ErrorType, status int, message string) *AppError {
	return &AppError{Type: t, Message: message, HTTPStatus: status}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// Details is the text shown next to the message in error bodies
func (e *AppError) Details() string {
	if e.Cause == nil {
		return ""
	}
	return e.Cause.Error()
}

// NewValidationError reports a bad request parameter (400)
func NewValidationError(message string) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, message)
}

// NewUnauthorizedError reports a missing or rejected bearer token (401)
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return newAppError(ErrorTypeUnauthorized, http.StatusUnauthorized, message)
}

// NewInternalError reports a server-side failure (500)
func NewInternalError(message string) *AppError {
	e := newAppError(ErrorTypeInternal, http.StatusInternalServerError, message)
	e.StackTrace = captureStackTrace()
	return e
}

// NewDatabaseError reports a failed store read (500). message is the
// client-facing summary, err the underlying cause.
func NewDatabaseError(message string, err error) *AppError {
	e := newAppError(ErrorTypeDatabase, http.StatusInternalServerError, message)
	e.Cause = err
	e.StackTrace = captureStackTrace()
	return e
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeValidation
}

func captureStackTrace() string {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return b.String()
}
