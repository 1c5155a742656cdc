package dispatch

import (
	"errors"
	"fmt"

	"github.com/dorisashehi/google-calendar/internal/calendar"
)

// ErrValidation matches every *ValidationError.
var ErrValidation = errors.New("validation failed")

// NotInitializedMessage is the user-facing message for credential failures.
const NotInitializedMessage = "Google Calendar service not initialized. Please check your credentials."

// ValidationError rejects a request before any backend call.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// BackendError wraps a failed Calendar Port call.
type BackendError struct {
	// Action is the verb phrase used in messages, e.g. "create event".
	Action string
	Err    error
}

// Error implements the error interface
func (e *BackendError) Error() string {
	return fmt.Sprintf("failed to %s: %s", e.Action, calendar.ErrorText(e.Err))
}

// Unwrap returns the underlying error
func (e *BackendError) Unwrap() error {
	return e.Err
}
