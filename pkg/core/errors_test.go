package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestExecutionError_Error(t *testing.T) {
	err := &ExecutionError{
		Category: ErrCategoryAction,
		Code:     "test_error",
		Message:  "test message",
	}

	if got := err.Error(); got != "test message" {
		t.Errorf("Error() = %q, want %q", got, "test message")
	}
}

func TestExecutionError_ErrorWithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ExecutionError{
		Category: ErrCategoryAction,
		Code:     "test_error",
		Message:  "test message",
		Cause:    cause,
	}

	got := err.Error()
	if !strings.Contains(got, "test message") {
		t.Errorf("Error() = %q, should contain 'test message'", got)
	}
	if !strings.Contains(got, "underlying error") {
		t.Errorf("Error() = %q, should contain 'underlying error'", got)
	}
}

func TestExecutionError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ExecutionError{
		Message: "wrapper",
		Cause:   cause,
	}

	if got := err.Unwrap(); got != cause {
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}
}

func TestExecutionError_WithCause(t *testing.T) {
	original := ErrActionFailed
	cause := errors.New("custom cause")

	newErr := original.WithCause(cause)

	if newErr.Cause != cause {
		t.Error("WithCause() did not set cause")
	}
	if newErr.Code != original.Code {
		t.Error("WithCause() changed code")
	}
	if original.Cause != nil {
		t.Error("WithCause() modified original error")
	}
}

func TestExecutionError_WithMessage(t *testing.T) {
	original := ErrWaitTimeout
	newErr := original.WithMessage("custom timeout message")

	if newErr.Message != "custom timeout message" {
		t.Errorf("Message = %q, want 'custom timeout message'", newErr.Message)
	}
	if newErr.Code != original.Code {
		t.Error("WithMessage() changed code")
	}
	if original.Message == "custom timeout message" {
		t.Error("WithMessage() modified original error")
	}
}

func TestExecutionError_WithDetails(t *testing.T) {
	original := &ExecutionError{
		Code:    "test",
		Message: "test",
		Details: map[string]interface{}{"existing": "value"},
	}

	newErr := original.WithDetails(map[string]interface{}{
		"query": "button marked:'Login'",
		"op":    "touch",
	})

	if newErr.Details["query"] != "button marked:'Login'" {
		t.Error("WithDetails() did not add new details")
	}
	if newErr.Details["existing"] != "value" {
		t.Error("WithDetails() did not preserve existing details")
	}
	if _, ok := original.Details["query"]; ok {
		t.Error("WithDetails() modified original error")
	}
}

func TestExecutionError_WithReason(t *testing.T) {
	cause := errors.New("raw remote text")
	err := ErrActionFailed.WithMessage("Failed to touch on: button").
		WithReason("No view found", cause).
		WithDetails(map[string]interface{}{"op": "touch"})

	if got, want := err.Error(), "Failed to touch on: button. No view found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("cause should stay reachable")
	}
	if !errors.Is(err, ErrActionFailed) {
		t.Error("should still match ErrActionFailed")
	}

	recaused := err.WithCause(cause)
	if got := recaused.Error(); !strings.HasSuffix(got, ": raw remote text") {
		t.Errorf("WithCause should print the new cause, got %q", got)
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err      *ExecutionError
		category ErrorCategory
		code     string
	}{
		{ErrInvalidConfig, ErrCategorySetup, "invalid_config"},
		{ErrMissingResource, ErrCategorySetup, "missing_resource"},
		{ErrActionFailed, ErrCategoryAction, "action_failed"},
		{ErrWaitTimeout, ErrCategoryTimeout, "wait_timeout"},
		{ErrWaitCancelled, ErrCategoryCancelled, "wait_cancelled"},
		{ErrDisposed, ErrCategoryDisposed, "disposed"},
		{ErrIndexOutOfRange, ErrCategoryUsage, "index_out_of_range"},
		{ErrInvalidArgument, ErrCategoryUsage, "invalid_argument"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Category != tt.category {
				t.Errorf("Category = %s, want %s", tt.err.Category, tt.category)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}

func TestNewExecutionError(t *testing.T) {
	err := NewExecutionError(ErrCategoryUsage, "custom_error", "custom message")

	if err.Category != ErrCategoryUsage {
		t.Errorf("Category = %s, want %s", err.Category, ErrCategoryUsage)
	}
	if err.Code != "custom_error" {
		t.Errorf("Code = %s, want 'custom_error'", err.Code)
	}
	if err.Message != "custom message" {
		t.Errorf("Message = %s, want 'custom message'", err.Message)
	}
}

func TestExecutionError_ErrorsIs(t *testing.T) {
	cause := errors.New("root cause")
	err := ErrActionFailed.WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the cause")
	}
}

func TestExecutionError_IsMatchesDerivedCopies(t *testing.T) {
	err := ErrWaitTimeout.WithMessage("login screen never appeared")
	wrapped := fmt.Errorf("step 3: %w", err)

	if !errors.Is(wrapped, ErrWaitTimeout) {
		t.Error("derived copy should match its sentinel")
	}
	if errors.Is(wrapped, ErrActionFailed) {
		t.Error("timeout should not match action failure")
	}
}

func TestPredicates(t *testing.T) {
	timeout := ErrWaitTimeout.WithMessage("x")
	disposed := ErrDisposed.WithDetails(map[string]interface{}{"op": "touch"})
	action := ErrActionFailed.WithCause(errors.New("boom"))

	if !IsTimeout(timeout) || IsTimeout(action) {
		t.Error("IsTimeout mismatch")
	}
	if !IsDisposed(disposed) || IsDisposed(timeout) {
		t.Error("IsDisposed mismatch")
	}
	if !IsActionFailure(action) || IsActionFailure(disposed) {
		t.Error("IsActionFailure mismatch")
	}
}

func TestCategoryOf(t *testing.T) {
	if got := CategoryOf(fmt.Errorf("wrap: %w", ErrDisposed)); got != ErrCategoryDisposed {
		t.Errorf("CategoryOf() = %s, want disposed", got)
	}
	if got := CategoryOf(errors.New("plain")); got != ErrCategoryNone {
		t.Errorf("CategoryOf() = %s, want none", got)
	}
}
