package transport

import "time"

// Response is the outcome of one gateway request, successful or not. Runtime
// failures (network, timeout, HTTP error status, invalid response body) are
// reported here rather than as Go errors so callers always get the timing and
// diagnostic context.
type Response struct {
	// Success is true when the gateway answered 200 with a usable body.
	Success bool `json:"success"`

	// Data is the raw response body. Set only on success or when the body is
	// useful for diagnostics.
	Data string `json:"data,omitempty"`

	// StatusCode is the HTTP status, 0 when no response was received.
	StatusCode int `json:"status_code"`

	// ErrorMessage describes the failure in operator terms.
	ErrorMessage string `json:"error_message,omitempty"`

	// ErrorDetails carries structured validation diagnostics when the body
	// was received but rejected.
	ErrorDetails map[string]any `json:"error_details,omitempty"`

	// ResponseTime is the total wall time including retries.
	ResponseTime time.Duration `json:"response_time"`

	// ContentType is the response Content-Type header.
	ContentType string `json:"content_type,omitempty"`

	// FromCache is true when the payload was served from the response cache
	// without touching the gateway.
	FromCache bool `json:"from_cache"`
}

// Failed builds an unsuccessful response.
func Failed(message string, elapsed time.Duration) *Response {
	return &Response{
		Success:      false,
		ErrorMessage: message,
		ResponseTime: elapsed,
	}
}
