package gateway

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "without underlying error",
			err:      NewConnectivityError("gateway not connected", nil),
			expected: "Connectivity Error: gateway not connected",
		},
		{
			name:     "with underlying error",
			err:      NewProtocolError("bad envelope", errors.New("unexpected end of JSON input")),
			expected: "Protocol Error: bad envelope (caused by: unexpected end of JSON input)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewConnectivityError("write failed", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the wrapped cause")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "connectivity error is retryable",
			err:      NewConnectivityError("dial failed", nil),
			expected: true,
		},
		{
			name:     "protocol error is not retryable",
			err:      NewProtocolError("undecodable message", nil),
			expected: false,
		},
		{
			name:     "wrapped connectivity error is retryable",
			err:      fmt.Errorf("tick drain: %w", NewConnectivityError("dial failed", nil)),
			expected: true,
		},
		{
			name:     "unknown error defaults to retryable",
			err:      errors.New("something else"),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.expected {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.expected)
			}
		})
	}
}
