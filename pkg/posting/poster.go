package posting

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/tallykit/tallygate/pkg/logging"
	"github.com/tallykit/tallygate/pkg/transport"
)

var postingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tally_voucher_postings_total",
	Help: "Total voucher posting attempts by outcome",
}, []string{"outcome"})

// Poster posts vouchers through a gateway transport.
type Poster struct {
	transport *transport.Client
	logger    zerolog.Logger
}

// NewPoster creates a voucher poster on top of an existing transport.
func NewPoster(t *transport.Client) *Poster {
	return &Poster{
		transport: t,
		logger:    logging.NewLogger("posting"),
	}
}

// Post wraps the voucher XML in the import envelope, submits it, and parses
// the import report. Network failures come back as a Result with
// ErrTypeNetwork rather than an error.
func (p *Poster) Post(ctx context.Context, voucherXML string, description string) *Result {
	p.logger.Info().Str("request", description).Msg("Posting voucher")

	payload := WrapForImport(voucherXML)
	resp := p.transport.Send(ctx, payload, "voucher post: "+description)
	if !resp.Success {
		postingsTotal.WithLabelValues("network_error").Inc()
		p.logger.Error().
			Str("request", description).
			Str("error", resp.ErrorMessage).
			Msg("Voucher posting failed before reaching TallyPrime")
		return &Result{
			ErrorType:    ErrTypeNetwork,
			ErrorMessage: resp.ErrorMessage,
			RawResponse:  resp.Data,
			ResponseTime: resp.ResponseTime,
		}
	}

	result := ParseResult(resp.Data, resp.ResponseTime)
	if result.Success {
		postingsTotal.WithLabelValues("success").Inc()
		p.logger.Info().
			Str("request", description).
			Str("voucher_id", result.VoucherID).
			Int("created", result.Created).
			Int("altered", result.Altered).
			Msg("Voucher posted")
	} else {
		postingsTotal.WithLabelValues(string(result.ErrorType)).Inc()
		p.logger.Error().
			Str("request", description).
			Str("error_type", string(result.ErrorType)).
			Str("error", result.ErrorMessage).
			Msg("Voucher posting rejected")
	}
	return result
}

// PostWithPrecheck validates the voucher locally first and skips the network
// round trip when the voucher cannot possibly import.
func (p *Poster) PostWithPrecheck(ctx context.Context, voucherXML string, description string) *Result {
	check := Precheck(voucherXML)
	if !check.Valid {
		postingsTotal.WithLabelValues("precheck_failed").Inc()
		p.logger.Warn().
			Str("request", description).
			Strs("issues", check.Issues).
			Msg("Voucher failed local validation")
		return &Result{
			ErrorType:    ErrTypeBusinessRule,
			ErrorMessage: check.Issues[0],
			ErrorDetails: check.Issues,
		}
	}
	return p.Post(ctx, voucherXML, description)
}
