package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is the structured error type for asrsmcp.
// It provides rich context for error handling, logging, and user presentation.
type Error struct {
	// Code is the unique error code (e.g., "ERR_403_INVALID_DATE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Validation, NotFound, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with Error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// New creates a new Error with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an Error from an existing error.
// The error's message becomes the Error message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *Error {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *Error {
	return New(ErrCodeFileNotFound, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string) *Error {
	return New(ErrCodeInvalidInput, message, nil)
}

// Validationf creates a validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return ValidationError(fmt.Sprintf(format, args...))
}

// MissingParameter creates an error for a required parameter that was not supplied.
func MissingParameter(name string) *Error {
	return New(ErrCodeMissingParameter,
		fmt.Sprintf("Missing required parameter: %s", name), nil).
		WithDetail("parameter", name)
}

// NotFound creates an error for an incident identifier that resolves to no record.
func NotFound(id string) *Error {
	return New(ErrCodeIncidentNotFound,
		fmt.Sprintf("Incident with ID %s not found.", id), nil).
		WithDetail("id", id)
}

// Precondition creates an error for a record lacking data an operation needs.
func Precondition(code, message string) *Error {
	return New(code, message, nil)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *Error {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort startup.
func IsFatal(err error) bool {
	if ae, ok := As(err); ok {
		return ae.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from an Error.
// Returns empty string if not an Error.
func GetCode(err error) string {
	if ae, ok := As(err); ok {
		return ae.Code
	}
	return ""
}

// GetCategory extracts the category from an Error.
// Returns empty string if not an Error.
func GetCategory(err error) Category {
	if ae, ok := As(err); ok {
		return ae.Category
	}
	return ""
}

// As reports whether err is an *Error and returns it.
func As(err error) (*Error, bool) {
	var ae *Error
	if stderrors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
