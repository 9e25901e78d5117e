package validate

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tallykit/tallygate/pkg/protocol"
)

const validCompanyXML = `<ENVELOPE>
  <BODY>
    <IMPORTDATA>
      <REQUESTDATA>
        <TALLYMESSAGE vchtype="Company">
          <COMPANY>
            <NAME>Acme Traders Pvt Ltd</NAME>
          </COMPANY>
        </TALLYMESSAGE>
      </REQUESTDATA>
    </IMPORTDATA>
  </BODY>
</ENVELOPE>`

// expectRejection runs the pipeline and asserts the failure tag.
func expectRejection(t *testing.T, raw string, report protocol.Report, want ErrorType) {
	t.Helper()

	v := New()
	doc, err := v.Validate(raw, report)
	if err == nil {
		t.Fatalf("Validate accepted content, want %s rejection", want)
	}
	if doc != nil {
		t.Error("rejected validation should not return a document")
	}

	var vErr *Error
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if vErr.Type != want {
		t.Errorf("error type = %s, want %s", vErr.Type, want)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		report protocol.Report
		want   ErrorType
	}{
		{
			name: "empty_body",
			raw:  "",
			want: ErrTypeEmptyResponse,
		},
		{
			name: "whitespace_only",
			raw:  "   \n\t  ",
			want: ErrTypeEmptyResponse,
		},
		{
			name: "too_short",
			raw:  "<ENVELOPE></ENVELOPE>",
			want: ErrTypeInsufficientContent,
		},
		{
			name: "html_error_page",
			raw:  "<!DOCTYPE html><html><body>TallyPrime error page content</body></html>",
			want: ErrTypeHTMLResponse,
		},
		{
			name: "html_without_doctype",
			raw:  "<html><head><title>Error</title></head><body>something went wrong</body></html>",
			want: ErrTypeHTMLResponse,
		},
		{
			name: "json_object",
			raw:  `{"error": "not xml", "padding": "xxxxxxxxxxxxxxxxxxxxxxxxxxxxx"}`,
			want: ErrTypeJSONResponse,
		},
		{
			name: "json_array",
			raw:  `[{"error": "not xml", "padding": "xxxxxxxxxxxxxxxxxxxxxxxxxxxx"}]`,
			want: ErrTypeJSONResponse,
		},
		{
			name: "plain_text",
			raw:  "this is definitely not xml content at all, just plain text output",
			want: ErrTypeNonXMLResponse,
		},
		{
			name: "truncated_xml",
			raw:  "<ENVELOPE><BODY><DATA>truncated mid element</DATA></BODY></ENVELOPE",
			want: ErrTypeTruncatedXML,
		},
		{
			name: "null_bytes",
			raw:  "<ENVELOPE><BODY>data\x00with null bytes padding out the body</BODY></ENVELOPE>",
			want: ErrTypeEncodingError,
		},
		{
			name: "replacement_chars",
			raw:  "<ENVELOPE><BODY>data\uFFFDwith bad encoding padding the body</BODY></ENVELOPE>",
			want: ErrTypeEncodingError,
		},
		{
			name: "mismatched_nesting",
			raw:  "<ENVELOPE><BODY><DATA>balanced brackets bad nesting</BODY></DATA></ENVELOPE>",
			want: ErrTypeParseError,
		},
		{
			name: "empty_root_element",
			raw:  "<ENVELOPE>" + strings.Repeat(" ", 60) + "</ENVELOPE>",
			want: ErrTypeEmptyStructure,
		},
		{
			name: "embedded_error_element",
			raw:  "<ENVELOPE><BODY><DATA><ERROR>Could not find Report</ERROR></DATA></BODY></ENVELOPE>",
			want: ErrTypeTallyError,
		},
		{
			name: "line_error_element",
			raw:  "<ENVELOPE><BODY><DATA><LINEERROR>Could not find Ledger 'X'</LINEERROR></DATA></BODY></ENVELOPE>",
			want: ErrTypeTallyError,
		},
		{
			name: "failed_request_status",
			raw:  `<ENVELOPE><BODY><DATA><REQUESTSTATUS status="FAILED"/><PAD>x</PAD></DATA></BODY></ENVELOPE>`,
			want: ErrTypeTallyError,
		},
		{
			name: "authentication_failure",
			raw:  "<ENVELOPE><BODY><AUTHENTICATION>Authentication failed for user</AUTHENTICATION></BODY></ENVELOPE>",
			want: ErrTypeAuthError,
		},
		{
			name:   "company_info_without_company_data",
			raw:    "<ENVELOPE><BODY><DATA><COLLECTION><ITEM>nothing relevant</ITEM></COLLECTION></DATA></BODY></ENVELOPE>",
			report: protocol.ReportCompanyInfo,
			want:   ErrTypeMissingCompanyData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := tt.report
			if report == "" {
				report = protocol.ReportDayBook
			}
			expectRejection(t, tt.raw, report, tt.want)
		})
	}
}

func TestValidateAcceptsWellFormedResponse(t *testing.T) {
	v := New()

	doc, err := v.Validate(validCompanyXML, protocol.ReportCompanyInfo)
	if err != nil {
		t.Fatalf("Validate rejected valid company response: %v", err)
	}
	if doc == nil || doc.Root() == nil {
		t.Fatal("expected a parsed document with a root element")
	}
	if doc.Root().Tag != "ENVELOPE" {
		t.Errorf("root tag = %s, want ENVELOPE", doc.Root().Tag)
	}

	stats := v.Stats()
	if stats.ParseErrors != 0 || stats.ValidationErrors != 0 || stats.MalformedResponses != 0 {
		t.Errorf("successful validation should not bump failure counters: %+v", stats)
	}
}

func TestValidateAcceptsUnexpectedRootTag(t *testing.T) {
	// The gateway varies its root element across versions; a mismatch is
	// advisory only.
	v := New()
	raw := "<RESULTS><ROW><VALUE>1</VALUE></ROW><ROW><VALUE>2</VALUE></ROW></RESULTS>"

	if _, err := v.Validate(raw, protocol.ReportDayBook); err != nil {
		t.Fatalf("Validate rejected response with unexpected root tag: %v", err)
	}
}

func TestValidateAcceptsEmptyLedgerList(t *testing.T) {
	// An empty company legitimately has no ledgers.
	v := New()
	raw := "<ENVELOPE><BODY><DATA><COLLECTION>no ledger elements</COLLECTION></DATA></BODY></ENVELOPE>"

	if _, err := v.Validate(raw, protocol.ReportLedgerList); err != nil {
		t.Fatalf("Validate rejected empty ledger list: %v", err)
	}
}

func TestRecentErrorsRingIsBounded(t *testing.T) {
	v := New()

	for i := 0; i < maxRecentErrors+5; i++ {
		raw := fmt.Sprintf("<ENVELOPE><BODY><DATA><ERROR>failure %02d</ERROR></DATA></BODY></ENVELOPE>", i)
		if _, err := v.Validate(raw, protocol.ReportDayBook); err == nil {
			t.Fatal("expected rejection")
		}
	}

	recent := v.RecentErrors()
	if len(recent) != maxRecentErrors {
		t.Fatalf("recent errors = %d, want %d", len(recent), maxRecentErrors)
	}

	// Oldest entries must have been dropped.
	if !strings.Contains(recent[0].Message, "failure 05") {
		t.Errorf("oldest retained error = %q, want the sixth failure", recent[0].Message)
	}
	if !strings.Contains(recent[maxRecentErrors-1].Message, "failure 14") {
		t.Errorf("newest retained error = %q, want the last failure", recent[maxRecentErrors-1].Message)
	}
}

func TestStatsCountsByCategory(t *testing.T) {
	v := New()

	// Malformed: not XML at all.
	_, _ = v.Validate("plain text that is long enough to pass the size check ok", protocol.ReportDayBook)
	// Parse: bad nesting.
	_, _ = v.Validate("<ENVELOPE><BODY><DATA>bad nesting here padded</BODY></DATA></ENVELOPE>", protocol.ReportDayBook)
	// Validation: embedded gateway error.
	_, _ = v.Validate("<ENVELOPE><BODY><DATA><ERROR>boom</ERROR><PAD>padding</PAD></DATA></BODY></ENVELOPE>", protocol.ReportDayBook)

	stats := v.Stats()
	if stats.MalformedResponses != 1 {
		t.Errorf("malformed = %d, want 1", stats.MalformedResponses)
	}
	if stats.ParseErrors != 1 {
		t.Errorf("parse errors = %d, want 1", stats.ParseErrors)
	}
	if stats.ValidationErrors != 1 {
		t.Errorf("validation errors = %d, want 1", stats.ValidationErrors)
	}
	if stats.RecentErrors != 3 {
		t.Errorf("recent errors = %d, want 3", stats.RecentErrors)
	}
}

func TestErrorSnippetTruncation(t *testing.T) {
	long := "<ENVELOPE>" + strings.Repeat("x", 2000)
	err := NewError(ErrTypeTruncatedXML, "truncated", long, nil)

	if len(err.XMLSnippet) != maxSnippetLen {
		t.Errorf("snippet length = %d, want %d", len(err.XMLSnippet), maxSnippetLen)
	}
}

func TestCleanStripsBOMAndNulls(t *testing.T) {
	cleaned, err := Clean("\uFEFF<ENVELOPE><BODY>x</BODY></ENVELOPE>")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if !strings.HasPrefix(cleaned, "<ENVELOPE>") {
		t.Errorf("BOM not stripped: %q", cleaned[:20])
	}

	cleaned, err = Clean("<A>x\x00y</A>")
	if err != nil {
		t.Fatalf("Clean failed on null bytes: %v", err)
	}
	if strings.Contains(cleaned, "\x00") {
		t.Error("null bytes not stripped")
	}

	if _, err := Clean("no xml here"); err == nil {
		t.Error("Clean should reject content that does not start with '<'")
	}
}
