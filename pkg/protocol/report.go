// Package protocol defines the TallyPrime HTTP-XML gateway request envelopes:
// the closed set of report types, their XML request templates, and the date
// conventions used on the wire.
package protocol

// Report identifies a logical data set exported by the TallyPrime gateway.
type Report string

const (
	// ReportCompanyInfo retrieves company details and configuration.
	ReportCompanyInfo Report = "company_info"

	// ReportLedgerList retrieves the full list of ledger accounts.
	ReportLedgerList Report = "ledger_list"

	// ReportLedgerDetails retrieves one ledger account by name.
	ReportLedgerDetails Report = "ledger_details"

	// ReportVoucherList retrieves vouchers within a date range.
	ReportVoucherList Report = "voucher_list"

	// ReportVoucherDetails retrieves one voucher by number and type.
	ReportVoucherDetails Report = "voucher_details"

	// ReportBalanceSheet retrieves the balance sheet report.
	ReportBalanceSheet Report = "balance_sheet"

	// ReportProfitLoss retrieves the profit and loss report.
	ReportProfitLoss Report = "profit_loss"

	// ReportDayBook retrieves day book entries within a date range.
	ReportDayBook Report = "day_book"

	// ReportStockSummary retrieves the stock summary report.
	ReportStockSummary Report = "stock_summary"
)

// String returns the report identifier.
func (r Report) String() string {
	return string(r)
}

// Params holds named template parameters for a request.
type Params map[string]string
