// Package apperror classifies failures seen by the tracker client so that
// callers can react to the category of a failure rather than its text.
package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind is the category of a failure.
type Kind int

const (
	// Unexpected is any failure that fits no other category.
	Unexpected Kind = iota
	// Validation is a rejected input, detected before any network call.
	Validation
	// Communication is a transport failure: connection refused, timeout,
	// interrupted or cancelled wait.
	Communication
	// Application is a non-success HTTP status returned by the server.
	Application
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Communication:
		return "communication"
	case Application:
		return "application"
	default:
		return "unexpected"
	}
}

// AppError is the single error type carrying a Kind.
type AppError struct {
	Kind    Kind
	Message string
	// Status is the HTTP status for Application errors.
	Status int
	// Body is the raw response body for Application errors.
	Body string
	Err  error
}

func (e *AppError) Error() string {
	switch {
	case e.Kind == Application && e.Body != "":
		return fmt.Sprintf("%s: status %d: %s", e.Message, e.Status, e.Body)
	case e.Kind == Application:
		return fmt.Sprintf("%s: status %d", e.Message, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error { return e.Err }

// Is reports whether target has the same kind, message and status.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message && t.Status == e.Status
}

// NewValidationError returns a Validation error with the given message.
func NewValidationError(message string) *AppError {
	return &AppError{Kind: Validation, Message: message}
}

// NewCommunicationError wraps a transport failure.
func NewCommunicationError(message string, err error) *AppError {
	return &AppError{Kind: Communication, Message: message, Err: err}
}

// NewApplicationError reports a non-success HTTP status.
func NewApplicationError(message string, status int, body string) *AppError {
	return &AppError{Kind: Application, Message: message, Status: status, Body: body}
}

// NewUnexpectedError wraps any other failure.
func NewUnexpectedError(message string, err error) *AppError {
	return &AppError{Kind: Unexpected, Message: message, Err: err}
}

// KindOf returns the category of err. Context cancellation and deadline
// expiry count as Communication even when not wrapped in an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Communication
	}
	return Unexpected
}

// IsValidation reports whether err is a Validation error.
func IsValidation(err error) bool { return err != nil && KindOf(err) == Validation }

// IsCommunication reports whether err is a Communication error.
func IsCommunication(err error) bool { return err != nil && KindOf(err) == Communication }

// IsApplication reports whether err is an Application error.
func IsApplication(err error) bool { return err != nil && KindOf(err) == Application }

// StatusCode returns the HTTP status carried by an Application error, or 0.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind == Application {
		return appErr.Status
	}
	return 0
}

// IsNotFound reports whether err is an Application error with status 404.
func IsNotFound(err error) bool { return StatusCode(err) == http.StatusNotFound }
