package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/vango-dev/atoms/pkg/atom"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
	CategoryStore    Category = "store"
	CategoryDevtools Category = "devtools"
)

// AtomsError is a structured error with a code, an explanation and a hint.
type AtomsError struct {
	// Code is a unique error identifier (e.g., "A101").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *AtomsError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *AtomsError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *AtomsError) WithDetail(d string) *AtomsError {
	e.Detail = d
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *AtomsError) WithSuggestion(s string) *AtomsError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *AtomsError) Wrap(err error) *AtomsError {
	e.Wrapped = err
	return e
}

// New creates an AtomsError from a registered error code.
func New(code string) *AtomsError {
	template, ok := registry[code]
	if !ok {
		return &AtomsError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &AtomsError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new AtomsError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *AtomsError {
	return &AtomsError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in an AtomsError. Store errors get their own codes;
// anything else gets code.
func FromError(err error, code string) *AtomsError {
	if err == nil {
		return nil
	}
	var ae *AtomsError
	if stderrors.As(err, &ae) {
		return ae
	}

	switch {
	case atom.IsCycle(err):
		code = "A301"
	case stderrors.Is(err, atom.ErrNotWritable):
		code = "A302"
	case stderrors.Is(err, atom.ErrInvalidValue):
		code = "A303"
	case stderrors.Is(err, atom.ErrStoreClosed):
		code = "A304"
	}
	return New(code).Wrap(err)
}

// Is reports whether err is an AtomsError with the given code.
func Is(err error, code string) bool {
	var ae *AtomsError
	return stderrors.As(err, &ae) && ae.Code == code
}
