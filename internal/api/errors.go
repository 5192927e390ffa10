package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrNilClient is returned by methods invoked on a nil *Client.
var ErrNilClient = errors.New("client is nil")

// StatusError reports a non-2xx response.
type StatusError struct {
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
}

// Unauthorized reports whether the server refused the credential.
func (e *StatusError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// ApplicationError is a 2xx response whose body carries an error field.
type ApplicationError struct {
	Path    string
	Message string
}

func (e *ApplicationError) Error() string {
	return e.Message
}

// NetworkError wraps a transport failure.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("execute request: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError reports a 2xx response whose body could not be understood.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a transient failure worth another
// attempt: 5xx and 429 statuses and transport errors, request timeouts
// included. Cancellation, credential rejection, business errors and
// malformed bodies are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status >= 500 || statusErr.Status == http.StatusTooManyRequests
	}
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsUnauthorized reports whether err is a 401 or 403 response.
func IsUnauthorized(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Unauthorized()
}
