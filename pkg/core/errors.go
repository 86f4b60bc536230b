package core

import (
	"errors"
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: action_failed, wait_timeout, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context (op, query, args)
	Cause    error                  // Underlying error

	reasonInMessage bool // Message already carries the cause's text
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil && !e.reasonInMessage {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an ExecutionError with the same code.
// Errors derived from a sentinel through the With* builders keep matching it.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithReason returns a copy whose message is "<message>. <reason>". cause
// stays reachable through errors.Is/As but is not repeated by Error.
func (e *ExecutionError) WithReason(reason string, cause error) *ExecutionError {
	return &ExecutionError{
		Category:        e.Category,
		Code:            e.Code,
		Message:         fmt.Sprintf("%s. %s", e.Message, reason),
		Details:         e.Details,
		Cause:           cause,
		reasonInMessage: true,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,

		reasonInMessage: e.reasonInMessage,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	// Setup errors
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategorySetup,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
	ErrMissingResource = &ExecutionError{
		Category: ErrCategorySetup,
		Code:     "missing_resource",
		Message:  "required resource not found",
	}

	// Remote/transport failures
	ErrActionFailed = &ExecutionError{
		Category: ErrCategoryAction,
		Code:     "action_failed",
		Message:  "action failed",
	}

	// Wait errors
	ErrWaitTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "wait_timeout",
		Message:  "Timed out waiting...",
	}
	ErrWaitCancelled = &ExecutionError{
		Category: ErrCategoryCancelled,
		Code:     "wait_cancelled",
		Message:  "wait cancelled",
	}

	// Lifecycle
	ErrDisposed = &ExecutionError{
		Category: ErrCategoryDisposed,
		Code:     "disposed",
		Message:  "Object is disposed.",
	}

	// Usage errors
	ErrIndexOutOfRange = &ExecutionError{
		Category: ErrCategoryUsage,
		Code:     "index_out_of_range",
		Message:  "index out of range",
	}
	ErrInvalidArgument = &ExecutionError{
		Category: ErrCategoryUsage,
		Code:     "invalid_argument",
		Message:  "invalid argument",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// CategoryOf returns the category of the first ExecutionError in err's chain.
func CategoryOf(err error) ErrorCategory {
	var e *ExecutionError
	if errors.As(err, &e) {
		return e.Category
	}
	return ErrCategoryNone
}

// IsTimeout reports whether err is a wait timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrWaitTimeout)
}

// IsDisposed reports whether err was raised by a disposed bridge.
func IsDisposed(err error) bool {
	return errors.Is(err, ErrDisposed)
}

// IsActionFailure reports whether err is a remote/transport action failure.
func IsActionFailure(err error) bool {
	return errors.Is(err, ErrActionFailed)
}
