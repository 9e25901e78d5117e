package protocol

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Common errors returned by template lookup and formatting.
var (
	// ErrUnknownReport is returned when no template exists for a report.
	// This is a programming error, not a runtime-recoverable condition.
	ErrUnknownReport = errors.New("unknown report")

	// ErrMissingParameter is returned when a template placeholder has no value.
	ErrMissingParameter = errors.New("missing template parameter")
)

// Template is an immutable XML request template for one report.
type Template struct {
	// Report is the logical report this template requests.
	Report Report

	// XML is the request envelope with {name} placeholders.
	XML string

	// Parameters maps placeholder names to their default values.
	// An empty default means the caller must supply the parameter.
	Parameters map[string]string

	// Description is a human-readable summary used in logs.
	Description string

	// ExpectedRoot is the root tag of a well-formed response. The gateway
	// varies its root element across versions, so a mismatch is advisory only.
	ExpectedRoot string
}

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// Format substitutes params into the template's named placeholders.
// Every placeholder must be resolved either from params or from the
// template's non-empty defaults; an unresolved placeholder returns
// ErrMissingParameter.
func (t Template) Format(params Params) (string, error) {
	xml := t.XML

	for name, def := range t.Parameters {
		value, ok := params[name]
		if !ok {
			value = def
		}
		if value == "" {
			return "", fmt.Errorf("%w: %q for report %s", ErrMissingParameter, name, t.Report)
		}
		xml = strings.ReplaceAll(xml, "{"+name+"}", value)
	}

	if m := placeholderPattern.FindStringSubmatch(xml); m != nil {
		return "", fmt.Errorf("%w: %q for report %s", ErrMissingParameter, m[1], t.Report)
	}

	return xml, nil
}

// TemplateFor looks up the request template for a report.
// Lookup failure means the caller asked for a report this client cannot
// build a request for; callers should treat it as a configuration bug.
func TemplateFor(report Report) (Template, error) {
	tmpl, ok := templates[report]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrUnknownReport, report)
	}
	return tmpl, nil
}

// Reports returns the reports that have request templates, for diagnostics.
func Reports() []Report {
	out := make([]Report, 0, len(templates))
	for r := range templates {
		out = append(out, r)
	}
	return out
}

// exportEnvelope builds the standard Export Data envelope for a report name
// with optional static variables inserted before SVEXPORTFORMAT.
func exportEnvelope(reportName string, staticVars ...string) string {
	var b strings.Builder
	b.WriteString("<ENVELOPE>\n")
	b.WriteString("  <HEADER>\n")
	b.WriteString("    <TALLYREQUEST>Export Data</TALLYREQUEST>\n")
	b.WriteString("  </HEADER>\n")
	b.WriteString("  <BODY>\n")
	b.WriteString("    <EXPORTDATA>\n")
	b.WriteString("      <REQUESTDESC>\n")
	b.WriteString("        <REPORTNAME>" + reportName + "</REPORTNAME>\n")
	b.WriteString("        <STATICVARIABLES>\n")
	for _, v := range staticVars {
		b.WriteString("          " + v + "\n")
	}
	b.WriteString("          <SVEXPORTFORMAT>$$SysName:XML</SVEXPORTFORMAT>\n")
	b.WriteString("        </STATICVARIABLES>\n")
	b.WriteString("      </REQUESTDESC>\n")
	b.WriteString("    </EXPORTDATA>\n")
	b.WriteString("  </BODY>\n")
	b.WriteString("</ENVELOPE>")
	return b.String()
}

// templates is the static request template table, built once at init.
var templates = map[Report]Template{
	ReportCompanyInfo: {
		Report:       ReportCompanyInfo,
		XML:          exportEnvelope("Company Info"),
		Parameters:   map[string]string{},
		Description:  "Retrieve company information including name, address, and financial year",
		ExpectedRoot: "ENVELOPE",
	},
	ReportLedgerList: {
		Report:       ReportLedgerList,
		XML:          exportEnvelope("List of Accounts"),
		Parameters:   map[string]string{},
		Description:  "Retrieve complete list of ledger accounts with basic details",
		ExpectedRoot: "ENVELOPE",
	},
	ReportLedgerDetails: {
		Report:       ReportLedgerDetails,
		XML:          exportEnvelope("Ledger", "<LEDGERNAME>{ledger_name}</LEDGERNAME>"),
		Parameters:   map[string]string{"ledger_name": ""},
		Description:  "Retrieve detailed information for a specific ledger account",
		ExpectedRoot: "ENVELOPE",
	},
	ReportBalanceSheet: {
		Report:       ReportBalanceSheet,
		XML:          exportEnvelope("Balance Sheet"),
		Parameters:   map[string]string{},
		Description:  "Retrieve balance sheet report with assets and liabilities",
		ExpectedRoot: "ENVELOPE",
	},
	ReportProfitLoss: {
		Report:       ReportProfitLoss,
		XML:          exportEnvelope("Profit and Loss"),
		Parameters:   map[string]string{},
		Description:  "Retrieve profit and loss report",
		ExpectedRoot: "ENVELOPE",
	},
	ReportDayBook: {
		Report: ReportDayBook,
		XML: exportEnvelope("Day Book",
			"<SVFROMDATE>{from_date}</SVFROMDATE>",
			"<SVTODATE>{to_date}</SVTODATE>"),
		Parameters:   map[string]string{"from_date": "", "to_date": ""},
		Description:  "Retrieve day book entries for specified date range",
		ExpectedRoot: "ENVELOPE",
	},
	ReportVoucherList: {
		Report: ReportVoucherList,
		XML: exportEnvelope("All Vouchers",
			"<SVFROMDATE>{from_date}</SVFROMDATE>",
			"<SVTODATE>{to_date}</SVTODATE>"),
		Parameters:   map[string]string{"from_date": "", "to_date": ""},
		Description:  "Retrieve voucher list for specified date range",
		ExpectedRoot: "ENVELOPE",
	},
	ReportVoucherDetails: {
		Report: ReportVoucherDetails,
		XML: exportEnvelope("Voucher Register",
			"<VOUCHERNUMBER>{voucher_number}</VOUCHERNUMBER>",
			"<VOUCHERTYPE>{voucher_type}</VOUCHERTYPE>"),
		Parameters:   map[string]string{"voucher_number": "", "voucher_type": ""},
		Description:  "Retrieve detailed information for a specific voucher",
		ExpectedRoot: "ENVELOPE",
	},
	ReportStockSummary: {
		Report:       ReportStockSummary,
		XML:          exportEnvelope("Stock Summary"),
		Parameters:   map[string]string{},
		Description:  "Retrieve stock summary report",
		ExpectedRoot: "ENVELOPE",
	},
}
