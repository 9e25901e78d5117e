package reader

import (
	"context"
	"sync"
	"time"

	"github.com/tallykit/tallygate/pkg/protocol"
	"github.com/tallykit/tallygate/pkg/transport"
)

// BatchConfig bounds the ledger-details batch fetch.
type BatchConfig struct {
	// MaxConcurrency is the number of parallel gateway requests. TallyPrime
	// is a desktop application; keep this small.
	MaxConcurrency int

	// Timeout per individual fetch.
	Timeout time.Duration
}

// DefaultBatchConfig returns conservative defaults for a local gateway.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxConcurrency: 4,
		Timeout:        30 * time.Second,
	}
}

// BatchResult is the outcome for one ledger in a batch fetch.
type BatchResult struct {
	LedgerName string
	Response   *transport.Response
	Err        error
}

// LedgerDetailsBatch fetches details for many ledgers through a bounded
// worker pool. Results are keyed by ledger name; individual failures do not
// abort the batch. Progress is reported through the reader's notifier.
func (r *Reader) LedgerDetailsBatch(ctx context.Context, names []string, cfg BatchConfig) map[string]BatchResult {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxConcurrency > len(names) {
		cfg.MaxConcurrency = len(names)
	}

	start := time.Now()
	r.logger.Info().
		Int("ledgers", len(names)).
		Int("workers", cfg.MaxConcurrency).
		Msg("Starting ledger details batch fetch")

	queue := make(chan string, len(names))
	results := make(chan BatchResult, len(names))

	for _, name := range names {
		queue <- name
	}
	close(queue)

	var wg sync.WaitGroup
	for i := 0; i < cfg.MaxConcurrency; i++ {
		wg.Add(1)
		go r.batchWorker(ctx, cfg, queue, results, &wg)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make(map[string]BatchResult, len(names))
	done := 0
	for result := range results {
		out[result.LedgerName] = result
		done++
		r.notifier.DataReadProgress(protocol.ReportLedgerDetails, done, len(names))
	}

	r.logger.Info().
		Int("fetched", done).
		Int("total", len(names)).
		Dur("duration", time.Since(start)).
		Msg("Ledger details batch fetch complete")
	return out
}

func (r *Reader) batchWorker(ctx context.Context, cfg BatchConfig, queue <-chan string, results chan<- BatchResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for name := range queue {
		select {
		case <-ctx.Done():
			results <- BatchResult{LedgerName: name, Err: ctx.Err()}
			continue
		default:
		}

		fetchCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		resp, err := r.LedgerDetails(fetchCtx, name)
		cancel()

		if err != nil {
			r.logger.Warn().Err(err).Str("ledger", name).Msg("Ledger details fetch failed")
		}
		results <- BatchResult{LedgerName: name, Response: resp, Err: err}
	}
}
