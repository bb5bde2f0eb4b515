package gateway

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of gateway error that occurred
type ErrorType int

const (
	// ErrTypeConnectivity indicates the gateway connection is down or a
	// write failed. Connectivity errors are retryable: the controller
	// re-enqueues the failed action.
	ErrTypeConnectivity ErrorType = iota
	// ErrTypeProtocol indicates a message the gateway would reject or
	// that we could not decode. Not retryable: the same exchange would
	// fail again.
	ErrTypeProtocol
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeConnectivity:
		return "Connectivity Error"
	case ErrTypeProtocol:
		return "Protocol Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error represents an error that occurred during gateway communication
type Error struct {
	Type      ErrorType // Category of error
	Message   string    // Human-readable error message
	Err       error     // Underlying error (if any)
	Retryable bool      // Whether the error is retryable
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// NewConnectivityError creates a retryable connectivity error
func NewConnectivityError(message string, err error) *Error {
	return &Error{
		Type:      ErrTypeConnectivity,
		Message:   message,
		Err:       err,
		Retryable: true,
	}
}

// NewProtocolError creates a non-retryable protocol error
func NewProtocolError(message string, err error) *Error {
	return &Error{
		Type:      ErrTypeProtocol,
		Message:   message,
		Err:       err,
		Retryable: false,
	}
}

// IsRetryable reports whether err should be retried by re-enqueueing the
// failed action. Unknown error types are treated as retryable so that
// transient failures are never dropped.
func IsRetryable(err error) bool {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Retryable
	}
	return true
}
