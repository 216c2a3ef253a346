package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrTransport    = errors.New("transport failure")
	ErrTimeout      = errors.New("request timeout")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrServer       = errors.New("server error")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the normalized failure shape every service call resolves to.
// Status is 0 when no HTTP response was received.
type Error struct {
	Err              error
	Status           int
	Message          string
	ValidationErrors []FieldError
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
	}
	return "api: " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FromStatus maps an HTTP status to the matching sentinel.
func FromStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 500:
		return ErrServer
	case status >= 400:
		return ErrValidation
	default:
		return nil
	}
}

func Transport(message string) *Error {
	return &Error{Err: ErrTransport, Message: message}
}

func Timeout() *Error {
	return &Error{Err: ErrTimeout, Message: "request timed out"}
}
