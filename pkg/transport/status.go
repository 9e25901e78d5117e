package transport

import (
	"sync"

	"github.com/rs/zerolog"
)

// Status represents the connection state toward the gateway.
type Status string

const (
	// StatusDisconnected is the initial state before any request.
	StatusDisconnected Status = "disconnected"

	// StatusConnecting is set while a request or connection test is running.
	StatusConnecting Status = "connecting"

	// StatusConnected is set after a successful exchange with the gateway.
	StatusConnected Status = "connected"

	// StatusError is set after a failed exchange other than a timeout.
	StatusError Status = "error"

	// StatusTimeout is set when the gateway did not answer within the
	// configured timeout.
	StatusTimeout Status = "timeout"

	// StatusTesting is set while an explicit connection test is running.
	StatusTesting Status = "testing"
)

// StatusListener receives connection state transitions.
type StatusListener func(status Status, message string)

// statusTracker holds the current connection state and notifies listeners on
// transitions. Repeated sets to the same status are suppressed so a polling
// monitor does not flood listeners.
type statusTracker struct {
	mu        sync.Mutex
	current   Status
	lastError string
	listeners []StatusListener
	logger    zerolog.Logger
}

func newStatusTracker(logger zerolog.Logger) *statusTracker {
	return &statusTracker{
		current: StatusDisconnected,
		logger:  logger,
	}
}

// Subscribe registers a listener for future transitions.
func (t *statusTracker) Subscribe(l StatusListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
}

// Status returns the current connection state.
func (t *statusTracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// LastError returns the most recent failure message, if any.
func (t *statusTracker) LastError() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastError
}

// set transitions to a new status. No-op when the status is unchanged.
func (t *statusTracker) set(status Status, message string) {
	t.mu.Lock()
	if t.current == status {
		t.mu.Unlock()
		return
	}
	t.current = status
	if status == StatusError || status == StatusTimeout {
		t.lastError = message
	}
	listeners := make([]StatusListener, len(t.listeners))
	copy(listeners, t.listeners)
	t.mu.Unlock()

	ConnectionStatus.WithLabelValues(string(status)).Set(1)
	for _, other := range []Status{StatusDisconnected, StatusConnecting, StatusConnected, StatusError, StatusTimeout, StatusTesting} {
		if other != status {
			ConnectionStatus.WithLabelValues(string(other)).Set(0)
		}
	}

	t.logger.Debug().
		Str("status", string(status)).
		Str("message", message).
		Msg("Connection status changed")

	for _, l := range listeners {
		l(status, message)
	}
}
