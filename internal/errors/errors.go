package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a vacay error code.
type ErrorCode string

const (
	ErrInvalidRequest       ErrorCode = "INVALID_REQUEST"        // 400
	ErrNotFound             ErrorCode = "NOT_FOUND"              // 404
	ErrGenerationInProgress ErrorCode = "GENERATION_IN_PROGRESS" // 409
	ErrBackend              ErrorCode = "BACKEND"                // 502
	ErrBackendUnavailable   ErrorCode = "BACKEND_UNAVAILABLE"    // 503
	ErrPersistence          ErrorCode = "PERSISTENCE"            // 500
	ErrInternal             ErrorCode = "INTERNAL"               // 500
)

// VacayError represents a structured error with code, status, and details.
type VacayError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *VacayError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *VacayError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *VacayError {
	return &VacayError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a history record cannot be found.
func NewNotFound(id string) *VacayError {
	return &VacayError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("itinerary not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewGenerationInProgress creates a 409 error when a generation request is already in flight.
func NewGenerationInProgress() *VacayError {
	return &VacayError{
		Code:    ErrGenerationInProgress,
		Status:  409,
		Message: "an itinerary is already being generated",
	}
}

// NewBackend creates a 502 error for a non-2xx backend response.
// detail is the backend's user-facing message; when empty a generic message is used.
func NewBackend(status int, detail string) *VacayError {
	msg := detail
	if msg == "" {
		msg = fmt.Sprintf("Server error: %d", status)
	}
	return &VacayError{
		Code:    ErrBackend,
		Status:  502,
		Message: msg,
		Details: map[string]any{"backend_status": status},
	}
}

// NewBackendUnavailable creates a 503 error when the backend cannot be reached.
func NewBackendUnavailable(err error) *VacayError {
	msg := "backend is not reachable"
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &VacayError{
		Code:    ErrBackendUnavailable,
		Status:  503,
		Message: msg,
		cause:   err,
	}
}

// NewPersistence creates a 500 error for a failed write to local storage.
func NewPersistence(slot string, err error) *VacayError {
	msg := fmt.Sprintf("failed to persist %s", slot)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &VacayError{
		Code:    ErrPersistence,
		Status:  500,
		Message: msg,
		Details: map[string]any{"slot": slot},
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *VacayError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &VacayError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if err (or any error it wraps) is a VacayError with the given code.
func Is(err error, code ErrorCode) bool {
	var vErr *VacayError
	if stderrors.As(err, &vErr) {
		return vErr.Code == code
	}
	return false
}
