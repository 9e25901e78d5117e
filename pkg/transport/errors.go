package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassConnection covers refused or unreachable gateway errors.
	ErrorClassConnection ErrorClass = "connection"

	// ErrorClassTimeout covers deadline and read timeouts.
	ErrorClassTimeout ErrorClass = "timeout"

	// ErrorClassHTTP covers non-200 gateway responses.
	ErrorClassHTTP ErrorClass = "http"

	// ErrorClassUnexpected covers everything else.
	ErrorClassUnexpected ErrorClass = "unexpected"
)

// classifyError categorizes a request error for retry and messaging.
func classifyError(err error) ErrorClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorClassTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return ErrorClassConnection
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrorClassConnection
	}
	return ErrorClassUnexpected
}

// shouldRetry reports whether a failure class is worth another attempt.
// Unexpected errors are not retried; everything the gateway side can recover
// from between attempts is.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassConnection, ErrorClassTimeout, ErrorClassHTTP:
		return true
	default:
		return false
	}
}

// errorMessage renders an operator-facing message for a failure class.
func errorMessage(class ErrorClass, cfg Config, err error) string {
	switch class {
	case ErrorClassConnection:
		return fmt.Sprintf("Cannot connect to TallyPrime at %s:%d. TallyPrime may not be running or its HTTP gateway is disabled.", cfg.Host, cfg.Port)
	case ErrorClassTimeout:
		return fmt.Sprintf("Request timed out after %s. TallyPrime may be busy processing.", cfg.Timeout.Round(time.Second))
	default:
		return fmt.Sprintf("Unexpected error: %v", err)
	}
}
