package client

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout signals the request deadline elapsed before a response arrived.
	ErrTimeout = errors.New("client: request timed out")
	// ErrBaseURL is returned by New when the base URL is not absolute.
	ErrBaseURL = errors.New("client: base url must be absolute")
	// ErrResponseTooLarge is returned when a response body exceeds the read limit.
	ErrResponseTooLarge = errors.New("client: response too large")
)

// ServiceError is a non-2xx response. Message holds the service supplied
// "error" string and is empty when the body carried none.
type ServiceError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("client: %s: unexpected status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("client: %s: status %d: %s", e.Operation, e.StatusCode, e.Message)
}

// ServiceMessage extracts the service supplied error text from err, if any.
func ServiceMessage(err error) (string, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return svcErr.Message, true
	}
	return "", false
}
