package posting

import (
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
)

// ErrorType classifies a failed posting for user feedback.
type ErrorType string

const (
	ErrTypeNone              ErrorType = ""
	ErrTypeMissingLedger     ErrorType = "missing_ledger"
	ErrTypeInvalidVoucherTyp ErrorType = "invalid_voucher_type"
	ErrTypeUnbalancedEntry   ErrorType = "unbalanced_entry"
	ErrTypeMalformedXML      ErrorType = "malformed_xml"
	ErrTypeDuplicateVoucher  ErrorType = "duplicate_voucher"
	ErrTypeAccessDenied      ErrorType = "access_denied"
	ErrTypeCompanyError      ErrorType = "company_error"
	ErrTypeBusinessRule      ErrorType = "business_rule_violation"
	ErrTypeNetwork           ErrorType = "network_error"
	ErrTypeParse             ErrorType = "parse_error"
	ErrTypeUnknown           ErrorType = "unknown_error"
)

// Result is the outcome of one voucher posting attempt.
type Result struct {
	Success   bool   `json:"success"`
	VoucherID string `json:"voucher_id,omitempty"`

	Created   int `json:"created"`
	Altered   int `json:"altered"`
	Deleted   int `json:"deleted"`
	Ignored   int `json:"ignored"`
	Errors    int `json:"errors"`
	Cancelled int `json:"cancelled"`

	ErrorType    ErrorType `json:"error_type,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ErrorDetails []string  `json:"error_details,omitempty"`

	RawResponse  string        `json:"-"`
	ResponseTime time.Duration `json:"response_time"`
}

// ParseResult interprets the gateway's import response body. A posting
// succeeded when the response reports zero errors and at least one voucher
// created or altered.
func ParseResult(body string, elapsed time.Duration) *Result {
	result := &Result{
		RawResponse:  body,
		ResponseTime: elapsed,
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(body); err != nil {
		result.ErrorType = ErrTypeParse
		result.ErrorMessage = "Could not parse import response: " + err.Error()
		return result
	}
	root := doc.Root()
	if root == nil {
		result.ErrorType = ErrTypeParse
		result.ErrorMessage = "Import response has no root element"
		return result
	}

	result.Created = intField(root, "CREATED")
	result.Altered = intField(root, "ALTERED")
	result.Deleted = intField(root, "DELETED")
	result.Ignored = intField(root, "IGNORED")
	result.Errors = intField(root, "ERRORS")
	result.Cancelled = intField(root, "CANCELLED")

	if el := root.FindElement("//LASTVCHID"); el != nil {
		result.VoucherID = strings.TrimSpace(el.Text())
	}

	for _, el := range root.FindElements("//LINEERROR") {
		if text := strings.TrimSpace(el.Text()); text != "" {
			result.ErrorDetails = append(result.ErrorDetails, text)
		}
	}

	if result.Errors == 0 && (result.Created > 0 || result.Altered > 0) {
		result.Success = true
		return result
	}

	result.ErrorType = Classify(result.ErrorDetails)
	if len(result.ErrorDetails) > 0 {
		result.ErrorMessage = result.ErrorDetails[0]
	} else {
		result.ErrorMessage = "TallyPrime did not import the voucher"
	}
	return result
}

func intField(root *etree.Element, tag string) int {
	el := root.FindElement("//" + tag)
	if el == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(el.Text()))
	if err != nil {
		return 0
	}
	return n
}

// Classify maps TallyPrime line error texts to an ErrorType. Patterns follow
// the wording TallyPrime uses in its import reports.
func Classify(errorMessages []string) ErrorType {
	if len(errorMessages) == 0 {
		return ErrTypeUnknown
	}
	combined := strings.ToLower(strings.Join(errorMessages, " "))

	switch {
	case strings.Contains(combined, "could not find ledger"):
		return ErrTypeMissingLedger
	case strings.Contains(combined, "voucher type does not exist"):
		return ErrTypeInvalidVoucherTyp
	case strings.Contains(combined, "voucher totals do not match"), strings.Contains(combined, "balance"):
		return ErrTypeUnbalancedEntry
	case strings.Contains(combined, "unknown request"), strings.Contains(combined, "xml"):
		return ErrTypeMalformedXML
	case strings.Contains(combined, "duplicate"), strings.Contains(combined, "already exists"):
		return ErrTypeDuplicateVoucher
	case strings.Contains(combined, "permission"), strings.Contains(combined, "access"):
		return ErrTypeAccessDenied
	case strings.Contains(combined, "company"):
		return ErrTypeCompanyError
	default:
		return ErrTypeBusinessRule
	}
}
