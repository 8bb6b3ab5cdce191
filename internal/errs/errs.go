// Package errs defines the error taxonomy of the journal API client.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL marks a malformed endpoint; effectively a config error.
	ErrInvalidURL = errors.New("invalid endpoint URL")
	// ErrRequestFailed marks a transport-level failure (DNS, TLS, timeout,
	// connection reset).
	ErrRequestFailed = errors.New("request failed")
	// ErrInvalidResponse marks a transport result that is not a well-formed
	// HTTP response.
	ErrInvalidResponse = errors.New("invalid response")
)

// DecodingError reports a response body that did not match the expected
// shape.
type DecodingError struct {
	What  string
	Cause error
}

func (e *DecodingError) Error() string { return fmt.Sprintf("decoding %s: %v", e.What, e.Cause) }
func (e *DecodingError) Unwrap() error { return e.Cause }

// EncodingError reports an outbound payload that could not be serialized.
type EncodingError struct {
	Cause error
}

func (e *EncodingError) Error() string { return fmt.Sprintf("encoding request body: %v", e.Cause) }
func (e *EncodingError) Unwrap() error { return e.Cause }

// ServerError is a well-formed HTTP response with a non-2xx status. Message
// holds the server-provided error text when one could be extracted, else a
// generic status description.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
}
