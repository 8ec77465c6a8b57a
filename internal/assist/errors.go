package assist

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrServiceUnavailable means the model backend could not be reached.
	// Callers may retry.
	ErrServiceUnavailable = errors.New("AI service is temporarily unavailable")
	// ErrGenerationFailed covers every other backend or parsing failure
	ErrGenerationFailed = errors.New("AI generation failed")
	// ErrInvalidInput rejects a request before any backend call
	ErrInvalidInput = errors.New("invalid input")
)

// Error describes a failed assist operation. It matches its Kind and the
// underlying cause with errors.Is.
type Error struct {
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Message != "" {
		msg = e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// invalid builds a validation error with a client-safe message
func invalid(op, message string) error {
	return &Error{Op: op, Kind: ErrInvalidInput, Message: message}
}

// PublicMessage returns the text safe to show a client for err
func PublicMessage(err error) string {
	var e *Error
	switch {
	case errors.As(err, &e) && errors.Is(err, ErrInvalidInput) && e.Message != "":
		return e.Message
	case errors.Is(err, ErrInvalidInput):
		return ErrInvalidInput.Error()
	case errors.Is(err, ErrServiceUnavailable):
		return "The AI service is temporarily unavailable. Please try again later."
	default:
		return "The AI service failed to process the request."
	}
}

// unavailablePatterns identify transport failures reaching the model backend
var unavailablePatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"context deadline exceeded",
	"service unavailable",
	"bad gateway",
	"gateway timeout",
	"too many requests",
	"temporary failure",
	"server misbehaving",
}

// IsUnavailable reports whether err means the backend is unreachable or
// overloaded rather than broken
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrServiceUnavailable) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range unavailablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
