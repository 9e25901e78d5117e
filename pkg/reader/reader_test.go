package reader

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tallykit/tallygate/internal/testutil"
	"github.com/tallykit/tallygate/pkg/protocol"
	"github.com/tallykit/tallygate/pkg/transport"
)

func newTestReader(t *testing.T, mock *testutil.MockGateway, opts ...Option) *Reader {
	t.Helper()

	host, port := mock.HostPort()
	client := transport.New(transport.Config{
		Host:       host,
		Port:       port,
		Timeout:    5 * time.Second,
		RetryCount: 1,
	})
	return New(client, opts...)
}

func TestRequestValidatesAndCaches(t *testing.T) {
	mock := testutil.NewMockGateway()
	defer mock.Close()
	mock.Enqueue(testutil.OK(testutil.CompanyInfoXML))

	r := newTestReader(t, mock)
	ctx := context.Background()

	resp, err := r.Request(ctx, protocol.ReportCompanyInfo, nil)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if !resp.Success {
		t.Fatalf("response not successful: %s", resp.ErrorMessage)
	}
	if resp.FromCache {
		t.Error("first read should come from the gateway")
	}

	// Second read is served from cache without touching the gateway.
	cached, err := r.Request(ctx, protocol.ReportCompanyInfo, nil)
	if err != nil {
		t.Fatalf("cached Request failed: %v", err)
	}
	if !cached.FromCache {
		t.Error("second read should come from cache")
	}
	if cached.Data != testutil.CompanyInfoXML {
		t.Error("cached payload differs from the gateway response")
	}
	if mock.RequestCount() != 1 {
		t.Errorf("request count = %d, want 1", mock.RequestCount())
	}
}

func TestRequestSkipCache(t *testing.T) {
	mock := testutil.NewMockGateway()
	defer mock.Close()
	mock.Enqueue(
		testutil.OK(testutil.CompanyInfoXML),
		testutil.OK(testutil.CompanyInfoXML),
	)

	r := newTestReader(t, mock)
	ctx := context.Background()

	if _, err := r.Request(ctx, protocol.ReportCompanyInfo, nil); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp, err := r.Request(ctx, protocol.ReportCompanyInfo, nil, SkipCache())
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.FromCache {
		t.Error("SkipCache read must hit the gateway")
	}
	if mock.RequestCount() != 2 {
		t.Errorf("request count = %d, want 2", mock.RequestCount())
	}
}

func TestRequestRejectedBody(t *testing.T) {
	mock := testutil.NewMockGateway()
	defer mock.Close()
	mock.Enqueue(testutil.OK(testutil.TallyErrorXML))

	r := newTestReader(t, mock)
	resp, err := r.Request(context.Background(), protocol.ReportCompanyInfo, nil)
	if err != nil {
		t.Fatalf("Request returned an error for a runtime failure: %v", err)
	}
	if resp.Success {
		t.Fatal("gateway error body should fail validation")
	}
	if resp.ErrorDetails["error_type"] != "TALLY_ERROR_RESPONSE" {
		t.Errorf("error_type = %v, want TALLY_ERROR_RESPONSE", resp.ErrorDetails["error_type"])
	}
	if resp.ErrorDetails["xml_snippet"] == "" {
		t.Error("rejected response should carry a diagnostic snippet")
	}

	// Rejected responses are never cached.
	mock.Enqueue(testutil.OK(testutil.CompanyInfoXML))
	resp, err = r.Request(context.Background(), protocol.ReportCompanyInfo, nil)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if !resp.Success || resp.FromCache {
		t.Error("retry after rejection should reach the gateway")
	}

	recent := r.RecentValidationErrors()
	if len(recent) != 1 {
		t.Errorf("recent validation errors = %d, want 1", len(recent))
	}
}

func TestRequestTransportFailure(t *testing.T) {
	mock := testutil.NewMockGateway()
	defer mock.Close()
	mock.Enqueue(testutil.ServerError())

	r := newTestReader(t, mock)
	resp, err := r.Request(context.Background(), protocol.ReportCompanyInfo, nil)
	if err != nil {
		t.Fatalf("Request returned an error for a runtime failure: %v", err)
	}
	if resp.Success {
		t.Fatal("expected failure for HTTP 500")
	}
	if !strings.Contains(resp.ErrorMessage, "HTTP 500") {
		t.Errorf("error message = %q", resp.ErrorMessage)
	}
}

func TestRequestProgrammingErrors(t *testing.T) {
	mock := testutil.NewMockGateway()
	defer mock.Close()

	r := newTestReader(t, mock)
	ctx := context.Background()

	if _, err := r.Request(ctx, protocol.Report("trial_balance"), nil); !errors.Is(err, protocol.ErrUnknownReport) {
		t.Errorf("unknown report error = %v, want ErrUnknownReport", err)
	}
	if _, err := r.Request(ctx, protocol.ReportLedgerDetails, nil); !errors.Is(err, protocol.ErrMissingParameter) {
		t.Errorf("missing parameter error = %v, want ErrMissingParameter", err)
	}
	if mock.RequestCount() != 0 {
		t.Errorf("request count = %d, want 0", mock.RequestCount())
	}
}

func TestClearCache(t *testing.T) {
	mock := testutil.NewMockGateway()
	defer mock.Close()
	mock.Enqueue(
		testutil.OK(testutil.CompanyInfoXML),
		testutil.OK(testutil.CompanyInfoXML),
	)

	r := newTestReader(t, mock)
	ctx := context.Background()

	if _, err := r.Request(ctx, protocol.ReportCompanyInfo, nil); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	r.ClearCache(ctx)

	resp, err := r.Request(ctx, protocol.ReportCompanyInfo, nil)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.FromCache {
		t.Error("read after ClearCache should hit the gateway")
	}
	if mock.RequestCount() != 2 {
		t.Errorf("request count = %d, want 2", mock.RequestCount())
	}
}

func TestCompany(t *testing.T) {
	mock := testutil.NewMockGateway()
	defer mock.Close()
	mock.Enqueue(testutil.OK(testutil.CompanyInfoXML))

	r := newTestReader(t, mock)
	company, err := r.Company(context.Background())
	if err != nil {
		t.Fatalf("Company failed: %v", err)
	}
	if company.Name != "Acme Traders Pvt Ltd" {
		t.Errorf("company name = %q", company.Name)
	}
}

func TestLedgers(t *testing.T) {
	mock := testutil.NewMockGateway()
	defer mock.Close()
	mock.Enqueue(testutil.OK(testutil.LedgerListXML))

	r := newTestReader(t, mock)
	ledgers, err := r.Ledgers(context.Background())
	if err != nil {
		t.Fatalf("Ledgers failed: %v", err)
	}
	if len(ledgers) != 2 {
		t.Fatalf("ledgers = %d, want 2", len(ledgers))
	}
	if ledgers[0].Name != "Cash" {
		t.Errorf("first ledger = %q", ledgers[0].Name)
	}
}

func TestLedgerDetailsSendsName(t *testing.T) {
	mock := testutil.NewMockGateway()
	defer mock.Close()
	mock.Enqueue(testutil.OK(testutil.LedgerListXML))

	r := newTestReader(t, mock)
	resp, err := r.LedgerDetails(context.Background(), "Cash")
	if err != nil {
		t.Fatalf("LedgerDetails failed: %v", err)
	}
	if !resp.Success {
		t.Fatalf("read failed: %s", resp.ErrorMessage)
	}
	if !strings.Contains(mock.LastBody(), "<LEDGERNAME>Cash</LEDGERNAME>") {
		t.Error("request does not carry the ledger name")
	}
}

func TestDayBookSendsDateRange(t *testing.T) {
	mock := testutil.NewMockGateway()
	defer mock.Close()
	mock.Enqueue(testutil.OK(testutil.LedgerListXML))

	r := newTestReader(t, mock)
	from := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC)

	resp, err := r.DayBook(context.Background(), from, to)
	if err != nil {
		t.Fatalf("DayBook failed: %v", err)
	}
	if !resp.Success {
		t.Fatalf("read failed: %s", resp.ErrorMessage)
	}

	sent := mock.LastBody()
	if !strings.Contains(sent, "<SVFROMDATE>01-04-2024</SVFROMDATE>") {
		t.Error("request does not carry the from date")
	}
	if !strings.Contains(sent, "<SVTODATE>30-04-2024</SVTODATE>") {
		t.Error("request does not carry the to date")
	}
}

func TestStatsConsolidation(t *testing.T) {
	mock := testutil.NewMockGateway()
	defer mock.Close()
	mock.Enqueue(
		testutil.OK(testutil.CompanyInfoXML),
		testutil.OK(testutil.TallyErrorXML),
	)

	r := newTestReader(t, mock)
	ctx := context.Background()

	r.Request(ctx, protocol.ReportCompanyInfo, nil)            // gateway read
	r.Request(ctx, protocol.ReportCompanyInfo, nil)            // cache hit
	r.Request(ctx, protocol.ReportLedgerList, nil)             // rejected body
	r.Request(ctx, protocol.Report("trial_balance"), nil)      // programming error, not counted
	stats := r.Stats()

	if stats.TotalReads != 3 {
		t.Errorf("total reads = %d, want 3", stats.TotalReads)
	}
	if stats.SuccessfulReads != 2 {
		t.Errorf("successful reads = %d, want 2", stats.SuccessfulReads)
	}
	if stats.FailedReads != 1 {
		t.Errorf("failed reads = %d, want 1", stats.FailedReads)
	}
	if stats.Transport.TotalRequests != 2 {
		t.Errorf("transport requests = %d, want 2", stats.Transport.TotalRequests)
	}
	if stats.Cache.Hits != 1 {
		t.Errorf("cache hits = %d, want 1", stats.Cache.Hits)
	}
	if stats.Validation.ValidationErrors != 1 {
		t.Errorf("validation errors = %d, want 1", stats.Validation.ValidationErrors)
	}
}

// recordingNotifier captures lifecycle events for assertions.
type recordingNotifier struct {
	mu        sync.Mutex
	started   []protocol.Report
	completed []bool // fromCache flags
	errors    []string
	progress  int
}

func (n *recordingNotifier) ConnectionStatusChanged(transport.Status, string) {}

func (n *recordingNotifier) DataReadStarted(report protocol.Report) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.started = append(n.started, report)
}

func (n *recordingNotifier) DataReadProgress(_ protocol.Report, done, _ int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.progress = done
}

func (n *recordingNotifier) DataReadCompleted(_ protocol.Report, fromCache bool, _ time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, fromCache)
}

func (n *recordingNotifier) DataReadError(_ protocol.Report, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func TestNotifierReceivesLifecycleEvents(t *testing.T) {
	mock := testutil.NewMockGateway()
	defer mock.Close()
	mock.Enqueue(
		testutil.OK(testutil.CompanyInfoXML),
		testutil.OK(testutil.TallyErrorXML),
	)

	notifier := &recordingNotifier{}
	r := newTestReader(t, mock, WithNotifier(notifier))
	ctx := context.Background()

	r.Request(ctx, protocol.ReportCompanyInfo, nil) // gateway read
	r.Request(ctx, protocol.ReportCompanyInfo, nil) // cache hit
	r.Request(ctx, protocol.ReportLedgerList, nil)  // rejected body

	notifier.mu.Lock()
	defer notifier.mu.Unlock()

	if len(notifier.started) != 2 {
		t.Errorf("started events = %d, want 2 (cache hits skip the gateway)", len(notifier.started))
	}
	if len(notifier.completed) != 2 {
		t.Fatalf("completed events = %d, want 2", len(notifier.completed))
	}
	if notifier.completed[0] || !notifier.completed[1] {
		t.Errorf("fromCache flags = %v, want [false true]", notifier.completed)
	}
	if len(notifier.errors) != 1 {
		t.Errorf("error events = %d, want 1", len(notifier.errors))
	}
}
