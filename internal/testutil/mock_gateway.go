// Package testutil provides a configurable mock TallyPrime gateway for
// tests. The real gateway serves everything on the server root, so the mock
// scripts responses in order rather than by path.
package testutil

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines one scripted gateway response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration

	// Hang makes the handler sleep until the client gives up, for timeout
	// tests. Overrides Delay.
	Hang time.Duration
}

// MockGateway is a scriptable stand-in for a TallyPrime HTTP gateway.
type MockGateway struct {
	server *httptest.Server

	mu           sync.Mutex
	queue        []MockResponse
	fallback     MockResponse
	requestCount int
	lastBody     string
	lastHeader   http.Header
}

// NewMockGateway starts a mock gateway that answers every request with the
// next scripted response, falling back to a healthy banner response when the
// script is exhausted.
func NewMockGateway() *MockGateway {
	mock := &MockGateway{
		fallback: MockResponse{
			StatusCode: http.StatusOK,
			Body:       "TallyPrime Server is Running",
			Headers:    map[string]string{"Content-Type": "text/plain"},
		},
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mock.mu.Lock()
		mock.requestCount++
		mock.lastBody = string(body)
		mock.lastHeader = r.Header.Clone()

		resp := mock.fallback
		if len(mock.queue) > 0 {
			resp = mock.queue[0]
			mock.queue = mock.queue[1:]
		}
		mock.mu.Unlock()

		if resp.Hang > 0 {
			time.Sleep(resp.Hang)
			return
		}
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockGateway) URL() string {
	return m.server.URL
}

// HostPort returns the mock server's host and port for transport configs.
func (m *MockGateway) HostPort() (string, int) {
	u := m.server.Listener.Addr().String()
	host, portStr, err := net.SplitHostPort(u)
	if err != nil {
		return "127.0.0.1", 0
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

// Close shuts down the mock server.
func (m *MockGateway) Close() {
	m.server.Close()
}

// Enqueue appends scripted responses, served in order.
func (m *MockGateway) Enqueue(responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, responses...)
}

// SetFallback replaces the response used when the script is exhausted.
func (m *MockGateway) SetFallback(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = resp
}

// RequestCount returns how many requests the mock has served.
func (m *MockGateway) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestCount
}

// LastBody returns the body of the most recent request.
func (m *MockGateway) LastBody() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastBody
}

// LastHeader returns the headers of the most recent request.
func (m *MockGateway) LastHeader() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastHeader
}

// Reset clears the script and counters.
func (m *MockGateway) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = nil
	m.requestCount = 0
	m.lastBody = ""
	m.lastHeader = nil
}

// OK builds a 200 response with an XML body.
func OK(body string) MockResponse {
	return MockResponse{StatusCode: http.StatusOK, Body: body}
}

// ServerError builds a 500 response.
func ServerError() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       "Internal Server Error",
		Headers:    map[string]string{"Content-Type": "text/plain"},
	}
}

// CompanyInfoXML is a minimal valid company info response.
const CompanyInfoXML = `<ENVELOPE>
  <BODY>
    <IMPORTDATA>
      <REQUESTDATA>
        <TALLYMESSAGE vchtype="Company">
          <COMPANY>
            <NAME>Acme Traders Pvt Ltd</NAME>
            <GUID>a1b2c3d4-0001</GUID>
            <STARTINGFROM>20240401</STARTINGFROM>
            <ENDINGAT>20250331</ENDINGAT>
            <BASECURRENCYSYMBOL>Rs.</BASECURRENCYSYMBOL>
          </COMPANY>
        </TALLYMESSAGE>
      </REQUESTDATA>
    </IMPORTDATA>
  </BODY>
</ENVELOPE>`

// LedgerListXML is a minimal valid ledger list response.
const LedgerListXML = `<ENVELOPE>
  <BODY>
    <DATA>
      <COLLECTION>
        <LEDGER NAME="Cash">
          <NAME>Cash</NAME>
          <PARENT>Cash-in-Hand</PARENT>
          <CLOSINGBALANCE>1500.00 Dr</CLOSINGBALANCE>
        </LEDGER>
        <LEDGER NAME="Sales Account">
          <NAME>Sales Account</NAME>
          <PARENT>Sales Accounts</PARENT>
          <CLOSINGBALANCE>-42000.00</CLOSINGBALANCE>
        </LEDGER>
      </COLLECTION>
    </DATA>
  </BODY>
</ENVELOPE>`

// TallyErrorXML is a gateway-level error response body.
const TallyErrorXML = `<ENVELOPE><BODY><DATA><ERROR>Could not find Report ' Unknown Report'</ERROR></DATA></BODY></ENVELOPE>`

// ImportSuccessXML is a voucher import report for one created voucher.
const ImportSuccessXML = `<ENVELOPE>
  <BODY>
    <DATA>
      <IMPORTRESULT>
        <CREATED>1</CREATED>
        <ALTERED>0</ALTERED>
        <DELETED>0</DELETED>
        <IGNORED>0</IGNORED>
        <ERRORS>0</ERRORS>
        <CANCELLED>0</CANCELLED>
        <LASTVCHID>12345</LASTVCHID>
      </IMPORTRESULT>
    </DATA>
  </BODY>
</ENVELOPE>`

// ImportErrorXML is a voucher import report rejecting a missing ledger.
const ImportErrorXML = `<ENVELOPE>
  <BODY>
    <DATA>
      <IMPORTRESULT>
        <CREATED>0</CREATED>
        <ERRORS>1</ERRORS>
        <LINEERROR>Could not find Ledger 'Nonexistent Account'</LINEERROR>
      </IMPORTRESULT>
    </DATA>
  </BODY>
</ENVELOPE>`
