package transport

import (
	"fmt"
	"time"
)

// Config holds the gateway connection configuration.
type Config struct {
	// Host and Port locate the TallyPrime HTTP gateway.
	Host string
	Port int

	// Timeout bounds each individual HTTP attempt.
	Timeout time.Duration

	// RetryCount is the total number of attempts per request, including the
	// first. RetryDelay is the fixed wait between attempts.
	RetryCount int
	RetryDelay time.Duration

	// UserAgent is sent on every request.
	UserAgent string

	// EnablePooling keeps HTTP connections alive between requests.
	EnablePooling bool

	// AutoDiscover probes candidate ports when the configured port does not
	// answer.
	AutoDiscover bool

	// VerboseLogging emits request and response bodies at debug level.
	VerboseLogging bool
}

// DefaultConfig returns the standard local gateway configuration.
func DefaultConfig() Config {
	return Config{
		Host:          "localhost",
		Port:          9000,
		Timeout:       30 * time.Second,
		RetryCount:    3,
		RetryDelay:    1 * time.Second,
		UserAgent:     "tallygate/1.0",
		EnablePooling: true,
	}
}

// URL returns the gateway endpoint. TallyPrime serves everything at the
// server root.
func (c Config) URL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// Validate checks the configuration for values the client cannot work with.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535 (got %d)", c.Port)
	}
	if c.RetryCount < 1 {
		return fmt.Errorf("retry_count must be >= 1 (got %d)", c.RetryCount)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive (got %s)", c.Timeout)
	}
	return nil
}
