// Package apperrors defines the structured error types of the application
// and the exit codes they map to.
//
// All error types implement Unwrap where they carry a cause, so errors.Is and
// errors.As work across the whole chain.
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Application exit codes.
const (
	ExitSuccess       = 0   // Successful execution.
	ExitErrorGeneric  = 1   // Generic failure.
	ExitErrorTimeout  = 2   // The execution limit was reached.
	ExitErrorMismatch = 3   // Calculators disagreed on the reliable digits.
	ExitErrorConfig   = 4   // Invalid flags, arguments or environment.
	ExitErrorInternal = 70  // An internal invariant was violated.
	ExitErrorCanceled = 130 // Canceled, e.g. by SIGINT.
)

// ErrInvariant marks violations of the numeric model, such as a carry that
// runs past the most significant limb. Such errors are defects, not input
// problems, and map to ExitErrorInternal.
var ErrInvariant = errors.New("internal invariant violated")

// ConfigError is a user configuration error: bad flags, arguments or
// environment values.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the message.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// CalculationError wraps a failure of one calculator, keeping its name.
type CalculationError struct {
	// Algorithm is the display name of the failing calculator.
	Algorithm string
	// Cause is the underlying error.
	Cause error
}

// Error returns the cause's message, prefixed with the algorithm if known.
func (e CalculationError) Error() string {
	if e.Algorithm == "" {
		return e.Cause.Error()
	}
	return fmt.Sprintf("%s: %v", e.Algorithm, e.Cause)
}

// Unwrap returns the cause.
func (e CalculationError) Unwrap() error { return e.Cause }

// ServerError is an error of the HTTP server component.
type ServerError struct {
	// Message describes the failing server operation.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error combines the message and the cause.
func (e ServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the cause.
func (e ServerError) Unwrap() error { return e.Cause }

// NewServerError creates a ServerError with an optional cause.
func NewServerError(message string, cause error) error {
	return ServerError{Message: message, Cause: cause}
}

// WrapError adds context to err with %w. It returns nil for a nil err.
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// IsContextError reports whether err is a cancellation or deadline error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ValidationError reports an invalid input value. It is produced by
// parameter validation for the CLI, the environment and the HTTP API.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message describes why validation failed.
	Message string
	// Value is the invalid value (optional, may be nil).
	Value any
}

// Error returns the message, naming the field when known.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new ValidationError.
//
// Parameters:
//   - field: The name of the field that failed validation.
//   - message: A description of why validation failed.
//   - value: The invalid value (optional).
//
// Returns:
//   - error: A new ValidationError instance.
func NewValidationError(field, message string, value any) error {
	return ValidationError{Field: field, Message: message, Value: value}
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
