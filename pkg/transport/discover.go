package transport

import (
	"context"
	"fmt"
	"net"
	"time"
)

// CandidatePorts are the ports TallyPrime installations commonly listen on,
// probed in order during discovery.
var CandidatePorts = []int{9000, 9999, 8000, 9090}

const probeTimeout = 2 * time.Second

// DiscoverPort probes candidate TCP ports on the host and returns the first
// one that accepts a connection. Returns an error when none answer.
func DiscoverPort(ctx context.Context, host string, ports ...int) (int, error) {
	if host == "" {
		host = "localhost"
	}
	if len(ports) == 0 {
		ports = CandidatePorts
	}

	dialer := net.Dialer{Timeout: probeTimeout}
	for _, port := range ports {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		addr := fmt.Sprintf("%s:%d", host, port)
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			continue
		}
		conn.Close()
		return port, nil
	}
	return 0, fmt.Errorf("no gateway found on %s (probed ports %v)", host, ports)
}

// Discover probes for a gateway port and reconfigures the client to use it.
func (c *Client) Discover(ctx context.Context) (int, error) {
	cfg := c.Config()

	// Try the configured port first so a healthy setup never moves.
	ports := append([]int{cfg.Port}, CandidatePorts...)
	port, err := DiscoverPort(ctx, cfg.Host, ports...)
	if err != nil {
		return 0, err
	}

	if port != cfg.Port {
		c.logger.Info().
			Int("old_port", cfg.Port).
			Int("new_port", port).
			Msg("Discovered gateway on different port")
		cfg.Port = port
		if err := c.Reconfigure(cfg); err != nil {
			return 0, err
		}
	}
	return port, nil
}
