package validate

import (
	"fmt"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"

	"github.com/tallykit/tallygate/pkg/logging"
	"github.com/tallykit/tallygate/pkg/protocol"
)

// minResponseSize is the smallest body that could plausibly hold a report.
const minResponseSize = 50

// maxRecentErrors bounds the diagnostics ring buffer.
const maxRecentErrors = 10

// Stats is a snapshot of the validator's failure counters.
type Stats struct {
	ParseErrors        int `json:"xml_parse_errors"`
	ValidationErrors   int `json:"validation_errors"`
	MalformedResponses int `json:"malformed_responses"`
	RecentErrors       int `json:"recent_errors_count"`
}

// Validator runs the multi-stage response validation pipeline and keeps a
// bounded ring of recent failures for diagnostics.
type Validator struct {
	mu                 sync.Mutex
	recent             []*Error
	parseErrors        int
	validationErrors   int
	malformedResponses int

	logger zerolog.Logger
}

// New creates a Validator.
func New() *Validator {
	return &Validator{
		logger: logging.NewLogger("validator"),
	}
}

// Validate runs the full pipeline over a raw gateway body and returns the
// parsed document on success. Failures are *Error values tagged with the
// stage that rejected the content; every failure is also recorded in the
// recent-errors ring.
//
// Stages, in order: non-empty, minimum size, pre-parse structural scan,
// content cleaning, parse, post-parse structural checks, embedded TallyPrime
// error detection, report-specific content checks.
func (v *Validator) Validate(raw string, report protocol.Report) (*etree.Document, error) {
	doc, err := v.validate(raw, report)
	if err != nil {
		ValidationsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	ValidationsTotal.WithLabelValues("ok").Inc()
	v.logger.Debug().Str("report", report.String()).Msg("XML response validation successful")
	return doc, nil
}

func (v *Validator) validate(raw string, report protocol.Report) (*etree.Document, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, v.track(NewError(ErrTypeEmptyResponse,
			"empty or null XML response received from TallyPrime", raw, nil))
	}

	if len(strings.TrimSpace(raw)) < minResponseSize {
		return nil, v.track(NewError(ErrTypeInsufficientContent,
			fmt.Sprintf("XML response too short (%d chars), likely incomplete or malformed", len(raw)),
			raw, nil))
	}

	if err := v.checkRawStructure(raw); err != nil {
		return nil, err
	}

	cleaned, err := Clean(raw)
	if err != nil {
		verr, ok := err.(*Error)
		if !ok {
			verr = NewError(ErrTypeValidation, "content cleaning failed", raw, err)
		}
		return nil, v.track(verr)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(cleaned); err != nil {
		return nil, v.track(NewError(ErrTypeParseError,
			"XML parsing failed, malformed XML structure", raw, err))
	}

	if err := v.checkParsedStructure(doc, report, raw); err != nil {
		return nil, err
	}

	if err := v.checkTallyErrors(doc, raw); err != nil {
		return nil, err
	}

	if err := v.checkReportContent(doc, report); err != nil {
		return nil, err
	}

	return doc, nil
}

// checkRawStructure scans the raw text for responses that are not XML at all.
func (v *Validator) checkRawStructure(raw string) error {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)

	head := lower
	if len(head) > 200 {
		head = head[:200]
	}
	if strings.HasPrefix(lower, "<!doctype html") || strings.Contains(head, "<html") {
		return v.track(NewError(ErrTypeHTMLResponse,
			"received HTML response instead of XML, TallyPrime may be returning an error page", raw, nil))
	}

	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return v.track(NewError(ErrTypeJSONResponse,
			"received JSON response instead of XML", raw, nil))
	}

	if !strings.HasPrefix(trimmed, "<") {
		return v.track(NewError(ErrTypeNonXMLResponse,
			"response does not appear to be valid XML, missing opening tag", raw, nil))
	}

	if strings.Count(raw, "<") != strings.Count(raw, ">") {
		return v.track(NewError(ErrTypeTruncatedXML,
			"XML appears truncated, unbalanced angle brackets", raw, nil))
	}

	if strings.Contains(raw, "\x00") || strings.Contains(raw, "\uFFFD") {
		return v.track(NewError(ErrTypeEncodingError,
			"XML contains null bytes or encoding errors", raw, nil))
	}

	return nil
}

// checkParsedStructure validates the parsed tree. A root-tag mismatch is
// logged as a warning only; the gateway varies its root element across
// versions.
func (v *Validator) checkParsedStructure(doc *etree.Document, report protocol.Report, raw string) error {
	root := doc.Root()
	if root == nil {
		return v.track(NewError(ErrTypeNullRoot,
			"XML parsing resulted in no root element", raw, nil))
	}

	if tmpl, err := protocol.TemplateFor(report); err == nil {
		if root.Tag != tmpl.ExpectedRoot && !knownRootTag(root.Tag) {
			v.logger.Warn().
				Str("root", root.Tag).
				Str("expected", tmpl.ExpectedRoot).
				Msg("Unexpected root element in gateway response")
		}
	}

	if len(root.ChildElements()) == 0 && strings.TrimSpace(root.Text()) == "" && len(root.Attr) == 0 {
		return v.track(NewError(ErrTypeEmptyStructure,
			fmt.Sprintf("XML structure is empty, root element %q has no content", root.Tag), raw, nil))
	}

	return nil
}

func knownRootTag(tag string) bool {
	switch tag {
	case "ENVELOPE", "RESPONSE", "TALLYMESSAGE":
		return true
	}
	return false
}

// tallyErrorPaths are element paths TallyPrime uses to embed errors in an
// otherwise well-formed response.
var tallyErrorPaths = []string{
	"//ERROR",
	"//LINEERROR",
	"//TALLYMESSAGE[@vchtype='Error']",
	"//ERRORMESSAGE",
	"//REQUESTSTATUS[@status='FAILED']",
}

// checkTallyErrors detects error elements embedded anywhere in the tree.
func (v *Validator) checkTallyErrors(doc *etree.Document, raw string) error {
	var messages []string
	for _, path := range tallyErrorPaths {
		for _, elem := range doc.FindElements(path) {
			switch {
			case strings.TrimSpace(elem.Text()) != "":
				messages = append(messages, strings.TrimSpace(elem.Text()))
			case len(elem.Attr) > 0:
				pairs := make([]string, 0, len(elem.Attr))
				for _, a := range elem.Attr {
					pairs = append(pairs, fmt.Sprintf("%s=%s", a.Key, a.Value))
				}
				messages = append(messages, strings.Join(pairs, " "))
			default:
				messages = append(messages, fmt.Sprintf("error in %s element", elem.Tag))
			}
		}
	}

	if len(messages) > 0 {
		return v.track(NewError(ErrTypeTallyError,
			"TallyPrime returned errors: "+strings.Join(messages, "; "), raw, nil))
	}

	for _, auth := range doc.FindElements("//AUTHENTICATION") {
		if strings.Contains(strings.ToLower(auth.Text()), "failed") {
			return v.track(NewError(ErrTypeAuthError,
				"TallyPrime authentication failed: "+strings.TrimSpace(auth.Text()), raw, nil))
		}
	}

	return nil
}

// checkReportContent applies report-specific sanity checks. Empty ledger and
// voucher lists are legitimate, so those only log; a company-info response
// with no company elements is a hard failure.
func (v *Validator) checkReportContent(doc *etree.Document, report protocol.Report) error {
	switch report {
	case protocol.ReportCompanyInfo:
		if len(doc.FindElements("//COMPANY")) == 0 &&
			len(doc.FindElements("//TALLYMESSAGE[@vchtype='Company']")) == 0 &&
			len(doc.FindElements("//NAME")) == 0 {
			return v.track(NewError(ErrTypeMissingCompanyData,
				"company information request returned no company data elements", "", nil))
		}

	case protocol.ReportLedgerList:
		if len(doc.FindElements("//LEDGER")) == 0 &&
			len(doc.FindElements("//TALLYMESSAGE[@vchtype='Ledger']")) == 0 &&
			len(doc.FindElements("//DSP_NAME")) == 0 {
			v.logger.Warn().Msg("Ledger list request returned no ledger elements, may be an empty company")
		}

	case protocol.ReportVoucherList:
		if len(doc.FindElements("//VOUCHER")) == 0 &&
			len(doc.FindElements("//TALLYMESSAGE[@vchtype]")) == 0 {
			v.logger.Info().Msg("Voucher list request returned no voucher elements, may be an empty date range")
		}
	}

	return nil
}

// Parse parses raw content into a document without running the validation
// pipeline. Used by domain parsers that already hold validated content.
func (v *Validator) Parse(raw string) (*etree.Document, error) {
	cleaned, err := Clean(raw)
	if err != nil {
		if verr, ok := err.(*Error); ok {
			return nil, v.track(verr)
		}
		return nil, v.track(NewError(ErrTypeUnexpectedParse, "unexpected error cleaning XML", raw, err))
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(cleaned); err != nil {
		return nil, v.track(NewError(ErrTypeParseError, "XML parsing failed", raw, err))
	}
	return doc, nil
}

// Track records an externally-created validation error in the ring buffer
// and counters. The reader uses this for unexpected failures at its boundary.
func (v *Validator) Track(err *Error) {
	v.track(err)
}

// track appends the error to the bounded recent-errors ring, bumps the
// matching counter, and returns the error for convenient chaining.
func (v *Validator) track(err *Error) *Error {
	v.mu.Lock()
	v.recent = append(v.recent, err)
	if len(v.recent) > maxRecentErrors {
		v.recent = v.recent[1:]
	}

	switch err.Type.category() {
	case categoryParse:
		v.parseErrors++
	case categoryMalformed:
		v.malformedResponses++
	default:
		v.validationErrors++
	}
	v.mu.Unlock()

	ValidationErrors.WithLabelValues(string(err.Type)).Inc()

	v.logger.Error().
		Str("error_type", string(err.Type)).
		Msg(err.Message)
	if err.XMLSnippet != "" {
		snippet := err.XMLSnippet
		if len(snippet) > 500 {
			snippet = snippet[:500]
		}
		v.logger.Debug().Str("xml_snippet", snippet).Msg("Problematic XML content")
	}

	return err
}

// RecentErrors returns debug info for the most recent validation failures,
// oldest first.
func (v *Validator) RecentErrors() []DebugInfo {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]DebugInfo, 0, len(v.recent))
	for _, err := range v.recent {
		out = append(out, err.DebugInfo())
	}
	return out
}

// Stats returns a snapshot of the failure counters.
func (v *Validator) Stats() Stats {
	v.mu.Lock()
	defer v.mu.Unlock()

	return Stats{
		ParseErrors:        v.parseErrors,
		ValidationErrors:   v.validationErrors,
		MalformedResponses: v.malformedResponses,
		RecentErrors:       len(v.recent),
	}
}
