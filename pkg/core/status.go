package core

// ErrorCategory classifies the type of error so callers can tell
// "condition never became true" apart from "something broke".
type ErrorCategory int

const (
	ErrCategoryNone      ErrorCategory = iota // No error
	ErrCategorySetup                          // Invalid directories, missing resources; raised at construction
	ErrCategoryAction                         // Remote or transport failure during an action
	ErrCategoryTimeout                        // Wait condition never became true
	ErrCategoryDisposed                       // Bridge used after Dispose
	ErrCategoryUsage                          // Invalid caller input (index out of range, bad argument)
	ErrCategoryCancelled                      // Caller cancelled a blocking call
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategorySetup:
		return "setup"
	case ErrCategoryAction:
		return "action"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryDisposed:
		return "disposed"
	case ErrCategoryUsage:
		return "usage"
	case ErrCategoryCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
