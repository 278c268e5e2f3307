package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBaseURL is returned when the base URL is not absolute http(s).
	ErrInvalidBaseURL = errors.New("backend base URL must be an absolute http(s) URL")

	// ErrUnexpectedResponse is returned when a response body does not match
	// the expected shape.
	ErrUnexpectedResponse = errors.New("unexpected backend response")
)

// APIError is a non-success answer from the backend.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Code is the machine-readable error code, if the backend sent one.
	Code string
	// Message is the human-readable message.
	Message string
}

// Error implements error.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend returned %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}
