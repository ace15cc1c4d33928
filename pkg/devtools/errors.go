package devtools

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vango-dev/atoms/pkg/atom"
)

// HTTPError is an error with the status code it is reported under.
type HTTPError struct {
	Code    int    // HTTP status code
	Message string // Message returned to the client
	Err     error  // Optional underlying error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code for this error.
func (e *HTTPError) StatusCode() int {
	return e.Code
}

// NotFound creates a 404 error for an unregistered atom name.
func NotFound(name string) *HTTPError {
	return &HTTPError{Code: http.StatusNotFound, Message: fmt.Sprintf("atom %q not registered", name)}
}

// BadRequest creates a 400 error.
func BadRequest(err error) *HTTPError {
	msg := "bad request"
	if err != nil {
		msg = err.Error()
	}
	return &HTTPError{Code: http.StatusBadRequest, Message: msg, Err: err}
}

// FromError maps a store error to an HTTPError. Errors returned by read
// or write functions are reported as 500 with their message unchanged.
func FromError(err error) *HTTPError {
	var he *HTTPError
	if errors.As(err, &he) {
		return he
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, atom.ErrNotWritable):
		code = http.StatusMethodNotAllowed
	case errors.Is(err, atom.ErrInvalidValue):
		code = http.StatusBadRequest
	case atom.IsPending(err):
		code = http.StatusAccepted
	case errors.Is(err, atom.ErrStoreClosed):
		code = http.StatusServiceUnavailable
	case atom.IsCycle(err):
		code = http.StatusConflict
	}
	return &HTTPError{Code: code, Message: err.Error(), Err: err}
}
