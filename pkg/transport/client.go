// Package transport implements the HTTP client for the TallyPrime gateway:
// request execution with fixed-delay retry, connection status tracking, port
// discovery, and a background connection monitor.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tallykit/tallygate/pkg/logging"
)

// Client sends XML request envelopes to a TallyPrime HTTP gateway.
type Client struct {
	mu         sync.RWMutex
	config     Config
	httpClient *http.Client

	status *statusTracker

	statsMu       sync.Mutex
	totalRequests uint64
	successful    uint64

	logger zerolog.Logger
}

// New creates a gateway client. Invalid configuration values are replaced by
// their defaults rather than rejected; a desktop caller reconfigures hosts
// and ports at runtime and should never be left without a client.
func New(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.Host == "" {
		cfg.Host = def.Host
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		cfg.Port = def.Port
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RetryCount < 1 {
		cfg.RetryCount = def.RetryCount
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}

	logger := logging.NewLogger("transport")
	return &Client{
		config:     cfg,
		httpClient: newHTTPClient(cfg),
		status:     newStatusTracker(logger),
		logger:     logger,
	}
}

func newHTTPClient(cfg Config) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DisableKeepAlives:   !cfg.EnablePooling,
	}
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}
}

// Config returns a copy of the active configuration.
func (c *Client) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// Reconfigure swaps the connection settings. In-flight requests finish on the
// old settings; the next request uses the new ones.
func (c *Client) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.config = cfg
	c.httpClient = newHTTPClient(cfg)
	c.mu.Unlock()

	c.status.set(StatusDisconnected, "reconfigured")
	c.logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("Transport reconfigured")
	return nil
}

// Subscribe registers a listener for connection status transitions.
func (c *Client) Subscribe(l StatusListener) {
	c.status.Subscribe(l)
}

// Status returns the current connection state.
func (c *Client) Status() Status {
	return c.status.Status()
}

// Send posts an XML request envelope to the gateway. Connection failures,
// timeouts, and non-200 statuses are retried up to RetryCount attempts with a
// fixed RetryDelay between them. The returned Response reports runtime
// failures; Send itself never returns an error.
func (c *Client) Send(ctx context.Context, payload string, description string) *Response {
	c.mu.RLock()
	cfg := c.config
	httpClient := c.httpClient
	c.mu.RUnlock()

	requestID := uuid.NewString()
	logger := c.logger.With().
		Str("request_id", requestID).
		Str("request", description).
		Logger()

	c.statsMu.Lock()
	c.totalRequests++
	c.statsMu.Unlock()

	c.status.set(StatusConnecting, description)
	start := time.Now()

	if cfg.VerboseLogging {
		logger.Debug().Str("payload", payload).Msg("Sending gateway request")
	} else {
		logger.Debug().Int("payload_bytes", len(payload)).Msg("Sending gateway request")
	}

	var lastClass ErrorClass
	var lastErr error
	var lastHTTP attemptResult

	for attempt := 1; attempt <= cfg.RetryCount; attempt++ {
		resp, err := c.attempt(ctx, httpClient, cfg, payload)
		if err == nil && resp.StatusCode == http.StatusOK {
			elapsed := time.Since(start)
			c.statsMu.Lock()
			c.successful++
			c.statsMu.Unlock()
			c.status.set(StatusConnected, "")
			gatewayRequestsTotal.WithLabelValues("success").Inc()
			gatewayRequestDuration.WithLabelValues("success").Observe(elapsed.Seconds())

			if attempt > 1 {
				logger.Info().Int("attempt", attempt).Msg("Request succeeded after retry")
			}
			logger.Debug().
				Dur("elapsed", elapsed).
				Int("response_bytes", len(resp.body)).
				Msg("Gateway request completed")

			return &Response{
				Success:      true,
				Data:         resp.body,
				StatusCode:   resp.StatusCode,
				ContentType:  resp.contentType,
				ResponseTime: elapsed,
			}
		}

		if err == nil {
			// The gateway answered with an error status. TallyPrime returns
			// transient non-200s while busy loading a company, so the
			// attempt is retried like a connection failure.
			lastHTTP = resp
			lastErr = nil
			lastClass = ErrorClassHTTP
			logger.Warn().
				Int("status", resp.StatusCode).
				Int("attempt", attempt).
				Msg("Gateway returned error status")
		} else {
			lastErr = err
			lastClass = classifyError(err)
			logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Str("error_class", string(lastClass)).
				Msg("Gateway request attempt failed")
		}

		if !shouldRetry(lastClass) || attempt >= cfg.RetryCount {
			break
		}

		gatewayRetriesTotal.WithLabelValues(string(lastClass)).Inc()
		select {
		case <-ctx.Done():
			elapsed := time.Since(start)
			c.status.set(StatusError, "cancelled")
			gatewayRequestsTotal.WithLabelValues("cancelled").Inc()
			return Failed(fmt.Sprintf("Request cancelled: %v", ctx.Err()), elapsed)
		case <-time.After(cfg.RetryDelay):
		}
	}

	elapsed := time.Since(start)

	if shouldRetry(lastClass) {
		gatewayRetryExhaustedTotal.WithLabelValues(string(lastClass)).Inc()
	}

	if lastClass == ErrorClassHTTP {
		message := fmt.Sprintf("HTTP %d: %s", lastHTTP.StatusCode, http.StatusText(lastHTTP.StatusCode))
		c.status.set(StatusError, message)
		gatewayRequestsTotal.WithLabelValues("http_error").Inc()
		gatewayRequestDuration.WithLabelValues("http_error").Observe(elapsed.Seconds())
		logger.Error().
			Int("status", lastHTTP.StatusCode).
			Dur("elapsed", elapsed).
			Msg("Gateway request failed")

		out := Failed(message, elapsed)
		out.StatusCode = lastHTTP.StatusCode
		out.Data = lastHTTP.body
		out.ContentType = lastHTTP.contentType
		return out
	}

	message := errorMessage(lastClass, cfg, lastErr)
	gatewayRequestsTotal.WithLabelValues(string(lastClass)).Inc()
	gatewayRequestDuration.WithLabelValues(string(lastClass)).Observe(elapsed.Seconds())

	if lastClass == ErrorClassTimeout {
		c.status.set(StatusTimeout, message)
	} else {
		c.status.set(StatusError, message)
	}
	logger.Error().
		Err(lastErr).
		Str("error_class", string(lastClass)).
		Dur("elapsed", elapsed).
		Msg("Gateway request failed")

	return Failed(message, elapsed)
}

type attemptResult struct {
	StatusCode  int
	body        string
	contentType string
}

func (c *Client) attempt(ctx context.Context, httpClient *http.Client, cfg Config, payload string) (attemptResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL(), strings.NewReader(payload))
	if err != nil {
		return attemptResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/xml; charset=utf-8")
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return attemptResult{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return attemptResult{}, fmt.Errorf("read response: %w", err)
	}

	return attemptResult{
		StatusCode:  resp.StatusCode,
		body:        string(body),
		contentType: resp.Header.Get("Content-Type"),
	}, nil
}

// TestConnection checks whether the gateway answers at all. TallyPrime
// replies to a bare GET on its root with a running banner.
func (c *Client) TestConnection(ctx context.Context) *Response {
	c.mu.RLock()
	cfg := c.config
	httpClient := c.httpClient
	c.mu.RUnlock()

	c.status.set(StatusTesting, "connection test")
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.URL(), nil)
	if err != nil {
		c.status.set(StatusError, err.Error())
		return Failed(fmt.Sprintf("Unexpected error: %v", err), time.Since(start))
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		class := classifyError(err)
		message := errorMessage(class, cfg, err)
		if class == ErrorClassTimeout {
			c.status.set(StatusTimeout, message)
		} else {
			c.status.set(StatusError, message)
		}
		return Failed(message, time.Since(start))
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	elapsed := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		message := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		c.status.set(StatusError, message)
		out := Failed(message, elapsed)
		out.StatusCode = resp.StatusCode
		return out
	}

	c.status.set(StatusConnected, "")
	c.logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Dur("elapsed", elapsed).
		Msg("Gateway connection verified")

	return &Response{
		Success:      true,
		Data:         string(body),
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		ResponseTime: elapsed,
	}
}

// Stats is a snapshot of the transport counters.
type Stats struct {
	TotalRequests      uint64  `json:"total_requests"`
	SuccessfulRequests uint64  `json:"successful_requests"`
	FailedRequests     uint64  `json:"failed_requests"`
	SuccessRatePercent float64 `json:"success_rate_percent"`
	Status             Status  `json:"status"`
	LastError          string  `json:"last_error,omitempty"`
}

// Stats returns the request counters and current connection state.
func (c *Client) Stats() Stats {
	c.statsMu.Lock()
	total := c.totalRequests
	successful := c.successful
	c.statsMu.Unlock()

	rate := 0.0
	if total > 0 {
		rate = float64(successful) / float64(total) * 100
	}
	return Stats{
		TotalRequests:      total,
		SuccessfulRequests: successful,
		FailedRequests:     total - successful,
		SuccessRatePercent: rate,
		Status:             c.status.Status(),
		LastError:          c.status.LastError(),
	}
}
