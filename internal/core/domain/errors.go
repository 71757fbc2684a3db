package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrUpstream        = errors.New("upstream failure")
	ErrInternal        = errors.New("internal error")

	// ErrAlreadyPaid is returned by a conditional mark-paid that lost the race.
	ErrAlreadyPaid = errors.New("payment already settled")

	// ErrSlugTaken is the storage conflict on the listing slug. It is an ErrConflict.
	ErrSlugTaken = fmt.Errorf("%w: slug already taken", ErrConflict)
)

// FieldError describes one rejected payload field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is a client-facing error: a kind from the list above plus a message.
type AppError struct {
	Kind    error
	Message string
	Fields  []FieldError
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Kind
}

// NewError builds an AppError of the given kind.
func NewError(kind error, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ValidationError builds a 400 carrying the individual field failures.
func ValidationError(fields []FieldError) *AppError {
	msg := "Invalid payload."
	if len(fields) > 0 {
		msg = fields[0].Message
	}
	return &AppError{Kind: ErrValidation, Message: msg, Fields: fields}
}

// StatusCode maps an error onto the HTTP status the outer layer should return.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrAlreadyPaid):
		return http.StatusConflict
	case errors.Is(err, ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-safe message of an error.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal server error."
}
