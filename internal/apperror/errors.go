// Package apperror defines the error taxonomy shared by handlers and
// services: validation, unauthorized, forbidden, not-found, conflict and
// internal. Each error carries an HTTP status and a client-safe message;
// the underlying cause is kept for logging and never sent to the client.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the base type for all domain errors.
type AppError struct {
	// Code is the HTTP status code.
	Code int `json:"-"`

	// Type is a machine-readable classifier (e.g. "validation_error").
	Type string `json:"type"`

	// Message is safe to show to the client.
	Message string `json:"message"`

	// Internal holds the underlying error for logging only.
	Internal error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// NewValidation creates a 400 error for malformed or missing input.
// Validation failures are terminal for the whole request.
func NewValidation(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Type: "validation_error", Message: message}
}

// NewUnauthorized creates a 401 error.
func NewUnauthorized(message string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Type: "unauthorized", Message: message}
}

// NewForbidden creates a 403 error.
func NewForbidden(message string) *AppError {
	return &AppError{Code: http.StatusForbidden, Type: "forbidden", Message: message}
}

// NewNotFound creates a 404 error for an absent target entity.
func NewNotFound(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Type: "not_found", Message: message}
}

// NewConflict creates a 409 error (e.g. duplicate tag, already-resolved
// request). Within a batch a conflict is usually recorded per item rather
// than returned.
func NewConflict(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Type: "conflict", Message: message}
}

// NewInternal creates a 500 error. The cause is stored for logging; the
// client only ever sees the generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "internal_error",
		Message:  "an unexpected error occurred",
		Internal: err,
	}
}

// Code returns the HTTP status for err: the AppError code when it is one,
// 500 for anything else.
func Code(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// SafeMessage returns the client-safe message for err. Non-AppError values
// collapse to a generic message so query text, table names and driver
// internals never reach the client.
func SafeMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "an unexpected error occurred"
}
