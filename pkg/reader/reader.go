// Package reader orchestrates gateway reads: template lookup, response cache,
// transport, and validation composed behind one Request call with
// consolidated statistics.
package reader

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tallykit/tallygate/pkg/cache"
	"github.com/tallykit/tallygate/pkg/logging"
	"github.com/tallykit/tallygate/pkg/protocol"
	"github.com/tallykit/tallygate/pkg/transport"
	"github.com/tallykit/tallygate/pkg/validate"
)

// Reader reads reports from the TallyPrime gateway.
type Reader struct {
	transport *transport.Client
	cache     cache.Store
	validator *validate.Validator
	notifier  Notifier

	statsMu    sync.Mutex
	total      uint64
	successful uint64
	failed     uint64
	totalTime  time.Duration

	logger zerolog.Logger
}

// Option customizes a Reader.
type Option func(*Reader)

// WithCache replaces the default in-process LRU store.
func WithCache(store cache.Store) Option {
	return func(r *Reader) { r.cache = store }
}

// WithNotifier registers a lifecycle event sink.
func WithNotifier(n Notifier) Option {
	return func(r *Reader) { r.notifier = n }
}

// New creates a Reader on top of an existing transport.
func New(t *transport.Client, opts ...Option) *Reader {
	r := &Reader{
		transport: t,
		cache:     cache.NewLRU(cache.DefaultMaxSize, cache.DefaultTTL),
		validator: validate.New(),
		notifier:  NopNotifier{},
		logger:    logging.NewLogger("reader"),
	}
	for _, opt := range opts {
		opt(r)
	}

	t.Subscribe(func(status transport.Status, message string) {
		r.notifier.ConnectionStatusChanged(status, message)
	})
	return r
}

// RequestOption adjusts a single Request call.
type RequestOption func(*requestOptions)

type requestOptions struct {
	skipCache bool
}

// SkipCache forces a gateway round trip even when a fresh entry exists.
func SkipCache() RequestOption {
	return func(o *requestOptions) { o.skipCache = true }
}

// Request reads one report from the gateway. Runtime failures (network,
// timeout, HTTP error, rejected response body) come back as an unsuccessful
// Response; the error return is reserved for programming mistakes: an unknown
// report or a missing template parameter.
func (r *Reader) Request(ctx context.Context, report protocol.Report, params protocol.Params, opts ...RequestOption) (*transport.Response, error) {
	var options requestOptions
	for _, opt := range opts {
		opt(&options)
	}

	template, err := protocol.TemplateFor(report)
	if err != nil {
		return nil, err
	}
	payload, err := template.Format(params)
	if err != nil {
		return nil, err
	}

	r.statsMu.Lock()
	r.total++
	r.statsMu.Unlock()

	start := time.Now()

	if !options.skipCache {
		if cached, ok := r.cache.Get(ctx, report, params); ok {
			elapsed := time.Since(start)
			r.recordSuccess(elapsed)
			r.notifier.DataReadCompleted(report, true, elapsed)
			return &transport.Response{
				Success:      true,
				Data:         cached,
				FromCache:    true,
				ResponseTime: elapsed,
			}, nil
		}
	}

	r.notifier.DataReadStarted(report)
	resp := r.transport.Send(ctx, payload, template.Description)
	if !resp.Success {
		r.recordFailure(resp.ResponseTime)
		r.notifier.DataReadError(report, resp.ErrorMessage)
		return resp, nil
	}

	if _, err := r.validator.Validate(resp.Data, report); err != nil {
		r.recordFailure(resp.ResponseTime)

		var vErr *validate.Error
		if errors.As(err, &vErr) {
			info := vErr.DebugInfo()
			resp.Success = false
			resp.ErrorMessage = vErr.Message
			resp.ErrorDetails = map[string]any{
				"error_type":  info.ErrorType,
				"cause":       info.Cause,
				"xml_snippet": info.XMLSnippet,
				"xml_length":  info.XMLLength,
			}
		} else {
			resp.Success = false
			resp.ErrorMessage = err.Error()
		}

		r.logger.Warn().
			Str("report", report.String()).
			Str("error", resp.ErrorMessage).
			Msg("Gateway response rejected by validation")
		r.notifier.DataReadError(report, resp.ErrorMessage)
		return resp, nil
	}

	r.cache.Put(ctx, report, resp.Data, params)

	elapsed := time.Since(start)
	r.recordSuccess(elapsed)
	r.notifier.DataReadCompleted(report, false, elapsed)
	return resp, nil
}

func (r *Reader) recordSuccess(elapsed time.Duration) {
	r.statsMu.Lock()
	r.successful++
	r.totalTime += elapsed
	r.statsMu.Unlock()
}

func (r *Reader) recordFailure(elapsed time.Duration) {
	r.statsMu.Lock()
	r.failed++
	r.totalTime += elapsed
	r.statsMu.Unlock()
}

// ClearCache drops all cached responses.
func (r *Reader) ClearCache(ctx context.Context) {
	r.cache.Clear(ctx)
}

// RecentValidationErrors returns the validator's diagnostic ring buffer.
func (r *Reader) RecentValidationErrors() []validate.DebugInfo {
	return r.validator.RecentErrors()
}

// Stats is the consolidated view over reader, transport, cache, and
// validation counters.
type Stats struct {
	TotalReads      uint64          `json:"total_reads"`
	SuccessfulReads uint64          `json:"successful_reads"`
	FailedReads     uint64          `json:"failed_reads"`
	TotalReadTime   time.Duration   `json:"total_read_time"`
	AverageReadTime time.Duration   `json:"average_read_time"`
	Transport       transport.Stats `json:"transport"`
	Cache           cache.Stats     `json:"cache"`
	Validation      validate.Stats  `json:"validation"`
}

// Stats returns a snapshot across all layers.
func (r *Reader) Stats() Stats {
	r.statsMu.Lock()
	total := r.total
	successful := r.successful
	failed := r.failed
	totalTime := r.totalTime
	r.statsMu.Unlock()

	var average time.Duration
	if completed := successful + failed; completed > 0 {
		average = totalTime / time.Duration(completed)
	}

	return Stats{
		TotalReads:      total,
		SuccessfulReads: successful,
		FailedReads:     failed,
		TotalReadTime:   totalTime,
		AverageReadTime: average,
		Transport:       r.transport.Stats(),
		Cache:           r.cache.Stats(),
		Validation:      r.validator.Stats(),
	}
}
