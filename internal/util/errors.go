package util

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common error types for the Speech CLI
var (
	// ErrInvalidConfig indicates a configuration error
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDeadlineExceeded indicates the run did not finish before its deadline
	ErrDeadlineExceeded = errors.New("deadline exceeded")

	// ErrInterrupted indicates the run was cancelled by the caller
	ErrInterrupted = errors.New("interrupted")

	// ErrMalformedOutcome indicates a batch outcome that does not match its batch
	ErrMalformedOutcome = errors.New("malformed outcome")

	// ErrOperationFailed indicates the remote operation produced no usable result
	ErrOperationFailed = errors.New("operation failed")

	// ErrSourceFailed indicates the work source could not be read
	ErrSourceFailed = errors.New("work source failed")

	// ErrConnectionFailed indicates a connection failure
	ErrConnectionFailed = errors.New("connection failed")

	// ErrUnsupportedFormat indicates an input file of an unknown type
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// BatchError wraps an error with the batch it happened in
type BatchError struct {
	Seq   int
	First string
	Last  string
	Size  int
	Err   error
}

// Error implements the error interface
func (e *BatchError) Error() string {
	if e.Size == 1 {
		return fmt.Sprintf("batch %d (%s): %v", e.Seq, e.First, e.Err)
	}
	return fmt.Sprintf("batch %d (%d items, %s..%s): %v", e.Seq, e.Size, e.First, e.Last, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/As compatibility
func (e *BatchError) Unwrap() error {
	return e.Err
}

// WrapBatchError wraps an error with batch context
func WrapBatchError(seq int, first, last string, size int, err error) error {
	if err == nil {
		return nil
	}
	return &BatchError{
		Seq:   seq,
		First: first,
		Last:  last,
		Size:  size,
		Err:   err,
	}
}

// MultiError aggregates multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:", len(m.Errors)))
	for i, err := range m.Errors {
		if i < 10 { // Limit to first 10 errors in the message
			sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
		} else if i == 10 {
			sb.WriteString(fmt.Sprintf("\n  ... and %d more errors", len(m.Errors)-10))
			break
		}
	}
	return sb.String()
}

// Unwrap returns the errors for errors.Is/As compatibility
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add adds an error to the multi-error
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// ErrorOrNil returns nil if no errors were added, otherwise returns the MultiError
func (m *MultiError) ErrorOrNil() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// NewMultiError creates a new MultiError from a slice of errors.
// It filters out nil errors.
func NewMultiError(errs []error) *MultiError {
	m := &MultiError{
		Errors: make([]error, 0, len(errs)),
	}
	for _, err := range errs {
		if err != nil {
			m.Errors = append(m.Errors, err)
		}
	}
	return m
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	if v.Value != nil {
		return fmt.Sprintf("validation failed for field %q (value: %v): %s", v.Field, v.Value, v.Message)
	}
	return fmt.Sprintf("validation failed for field %q: %s", v.Field, v.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IsTimeout checks if an error is a run deadline error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrDeadlineExceeded)
}

// IsInterrupted checks if an error is a cancellation error
func IsInterrupted(err error) bool {
	return errors.Is(err, ErrInterrupted) || errors.Is(err, context.Canceled)
}

// IsMalformed checks if an error comes from an outcome that did not match its batch
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedOutcome)
}

// IsConnectionError checks if an error is a connection error
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}

// RetryableError wraps an error to indicate it should be retried
type RetryableError struct {
	Err        error
	RetryAfter int // seconds
}

// Error implements the error interface
func (r *RetryableError) Error() string {
	if r.RetryAfter > 0 {
		return fmt.Sprintf("retryable error (retry after %ds): %v", r.RetryAfter, r.Err)
	}
	return fmt.Sprintf("retryable error: %v", r.Err)
}

// Unwrap returns the wrapped error
func (r *RetryableError) Unwrap() error {
	return r.Err
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error, retryAfter int) *RetryableError {
	return &RetryableError{
		Err:        err,
		RetryAfter: retryAfter,
	}
}

// FriendlyError converts technical errors to user-friendly messages
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case IsTimeout(err):
		return "Process exceeded the maximum allowed time. Increase the timeout value with --timeout flag. (" + err.Error() + ")"
	case IsInterrupted(err):
		return "The process was interrupted."
	case IsConnectionError(err):
		return "Failed to connect. Please check the host, credentials and network connectivity. (" + err.Error() + ")"
	case IsMalformed(err):
		return "The remote service returned a response that could not be interpreted. (" + err.Error() + ")"
	case errors.Is(err, ErrUnsupportedFormat):
		return "Unsupported data file. Only CSV and JSON files are accepted. (" + err.Error() + ")"
	case errors.Is(err, ErrInvalidConfig):
		return "Invalid configuration. Please check your config file and command-line flags. (" + err.Error() + ")"
	default:
		return err.Error()
	}
}

// CombineErrors combines multiple errors into a single error.
// Returns nil if all errors are nil.
func CombineErrors(errs ...error) error {
	m := NewMultiError(errs)
	return m.ErrorOrNil()
}
