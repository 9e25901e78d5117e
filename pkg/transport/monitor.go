package transport

import (
	"context"
	"sync"
	"time"
)

// Monitor periodically tests the gateway connection so status listeners learn
// about outages without waiting for the next user-driven request.
type Monitor struct {
	client   *Client
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor creates a connection monitor. An interval <= 0 defaults to 30s.
func NewMonitor(client *Client, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{client: client, interval: interval}
}

// Start launches the monitor goroutine. Starting a running monitor is a
// no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	// The goroutine gets its own reference; Stop nils the field while the
	// goroutine may still be running.
	go m.run(ctx, done)
	m.client.logger.Info().Dur("interval", m.interval).Msg("Connection monitor started")
}

// Stop halts the monitor and waits for the goroutine to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.client.logger.Info().Msg("Connection monitor stopped")
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			testCtx, cancel := context.WithTimeout(ctx, m.client.Config().Timeout)
			m.client.TestConnection(testCtx)
			cancel()
		}
	}
}
