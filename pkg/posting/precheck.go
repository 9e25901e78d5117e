package posting

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// PrecheckResult lists problems found by local voucher validation.
type PrecheckResult struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
}

// balanceTolerance allows for rounding in voucher totals.
var balanceTolerance = decimal.NewFromFloat(0.01)

// Precheck validates voucher XML locally before posting: structure, required
// fields, and the debit/credit balance. It catches the mistakes TallyPrime
// would reject anyway, without the network round trip.
func Precheck(voucherXML string) PrecheckResult {
	var issues []string

	doc := etree.NewDocument()
	if err := doc.ReadFromString(voucherXML); err != nil {
		return PrecheckResult{Issues: []string{"XML parsing error: " + err.Error()}}
	}
	root := doc.Root()
	if root == nil {
		return PrecheckResult{Issues: []string{"voucher XML has no root element"}}
	}

	voucher := root.FindElement("//VOUCHER")
	if voucher == nil && root.Tag == "VOUCHER" {
		voucher = root
	}
	if voucher == nil {
		return PrecheckResult{Issues: []string{"no VOUCHER element found"}}
	}

	if voucher.SelectAttrValue("VCHTYPE", "") == "" {
		issues = append(issues, "VCHTYPE attribute is missing")
	}
	if text(voucher, ".//VOUCHERNUMBER") == "" {
		issues = append(issues, "VOUCHERNUMBER is missing")
	}
	if text(voucher, ".//DATE") == "" {
		issues = append(issues, "DATE is missing")
	}

	entries := voucher.FindElements(".//ALLLEDGERENTRIES.LIST")
	if len(entries) < 2 {
		issues = append(issues, "at least two ledger entries are required")
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, entry := range entries {
		name := text(entry, ".//LEDGERNAME")
		if name == "" {
			issues = append(issues, "ledger name is missing in an entry")
			continue
		}

		amountText := text(entry, ".//AMOUNT")
		amount, err := decimal.NewFromString(strings.TrimPrefix(amountText, "-"))
		if err != nil {
			issues = append(issues, fmt.Sprintf("invalid amount for ledger %q: %s", name, amountText))
			continue
		}

		if strings.EqualFold(text(entry, ".//ISDEEMEDPOSITIVE"), "yes") {
			totalDebit = totalDebit.Add(amount)
		} else {
			totalCredit = totalCredit.Add(amount)
		}
	}

	if len(entries) >= 2 {
		if diff := totalDebit.Sub(totalCredit).Abs(); diff.GreaterThanOrEqual(balanceTolerance) {
			issues = append(issues, fmt.Sprintf("voucher is not balanced: debit %s, credit %s", totalDebit, totalCredit))
		}
	}

	return PrecheckResult{Valid: len(issues) == 0, Issues: issues}
}

func text(el *etree.Element, path string) string {
	if found := el.FindElement(path); found != nil {
		return strings.TrimSpace(found.Text())
	}
	return ""
}
