package client

import "fmt"

// TransportError means no HTTP response was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "Network error. Please try again." }
func (e *TransportError) Unwrap() error { return e.Err }

// AuthError reports a 401. The session has already been cleared.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// APIError is any other non-2xx answer.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("unexpected status %d", e.Status)
}
