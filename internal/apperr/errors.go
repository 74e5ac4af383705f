// Package apperr defines the error taxonomy shared by the services, the
// datastore gateway and the HTTP router.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError reports a referenced patient or file that does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// UnsupportedOperationError reports an operation the datastore gateway cannot perform.
type UnsupportedOperationError struct {
	Message string
}

func (e *UnsupportedOperationError) Error() string { return e.Message }

// StorageError reports a failed or misconfigured datastore call.
type StorageError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *StorageError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("datastore error: %d %s", e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("datastore %s: %v", e.Op, e.Err)
	default:
		return "datastore " + e.Op + " failed"
	}
}

func (e *StorageError) Unwrap() error { return e.Err }

// AuthError reports a missing or invalid token on the realtime channel.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return "unauthorized: " + e.Reason }

// ErrMissingCredentials is wrapped by StorageError when the gateway has no credentials.
var ErrMissingCredentials = errors.New("missing datastore configuration")

// Validation builds a ValidationError.
func Validation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a NotFoundError.
func NotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// Unsupported builds an UnsupportedOperationError.
func Unsupported(message string) error {
	return &UnsupportedOperationError{Message: message}
}

// StatusCode maps an error to the HTTP status of the response envelope.
func StatusCode(err error) int {
	var (
		validation  *ValidationError
		notFound    *NotFoundError
		unsupported *UnsupportedOperationError
		auth        *AuthError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &unsupported):
		return http.StatusNotImplemented
	case errors.As(err, &auth):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
