package api

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized is returned for any 401. The session has already been
	// cleared by the unauthorized hook when the caller sees it.
	ErrUnauthorized = errors.New("session expired or not authorized")

	// ErrUnavailable indicates the backend could not be reached.
	ErrUnavailable = errors.New("attendance server unavailable")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrRetryExhausted indicates every retry of an idempotent call failed.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)

// APIError is a non-2xx answer from the backend. Message is the server's
// own text and is shown to the user verbatim.
type APIError struct {
	Status  int
	Message string
	Path    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.Path, e.Status, e.Message)
}

// Temporary reports whether a retry could succeed.
func (e *APIError) Temporary() bool {
	return e.Status >= 500
}

// FieldError is one failed presence or format check.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned before any network call when a request is
// missing required input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, ", ")
}

// UserMessage maps any error from this package to the text a person should
// see. Business rejections keep the server's wording.
func UserMessage(err error) string {
	var apiErr *APIError
	var valErr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &valErr):
		return valErr.Error()
	case errors.Is(err, ErrUnauthorized):
		return "Session expired, please sign in again"
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrTimeout):
		return "The server took too long to respond"
	case errors.Is(err, ErrUnavailable):
		return "Cannot reach the attendance server"
	default:
		return "Something went wrong, please try again"
	}
}

func errorCode(err error) string {
	var apiErr *APIError
	var valErr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.As(err, &valErr):
		return "VALIDATION"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("HTTP_%d", apiErr.Status)
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	default:
		return "UNKNOWN"
	}
}
