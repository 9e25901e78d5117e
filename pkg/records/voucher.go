package records

import (
	"sort"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/tallykit/tallygate/pkg/protocol"
)

// VoucherEntry is one debit or credit line within a voucher.
type VoucherEntry struct {
	LedgerName string          `json:"ledger_name"`
	Amount     decimal.Decimal `json:"amount"`
	Side       Side            `json:"side"`
	Narration  string          `json:"narration,omitempty"`
}

// Voucher is one recorded transaction.
type Voucher struct {
	Type      string          `json:"type,omitempty"`
	Number    string          `json:"number,omitempty"`
	Date      time.Time       `json:"date,omitempty"`
	GUID      string          `json:"guid,omitempty"`
	Narration string          `json:"narration,omitempty"`
	Reference string          `json:"reference,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Entries   []VoucherEntry  `json:"entries,omitempty"`
}

// ParseVouchers extracts all vouchers from a validated response document,
// sorted by date then number.
func ParseVouchers(doc *etree.Document) []Voucher {
	root := doc.Root()
	if root == nil {
		return nil
	}

	elements := root.FindElements("//VOUCHER")
	for _, el := range root.FindElements("//TALLYMESSAGE") {
		vchtype := el.SelectAttrValue("vchtype", "")
		if vchtype == "" || vchtype == "Company" || vchtype == "Ledger" || vchtype == "Error" {
			continue
		}
		// A TALLYMESSAGE wrapping a VOUCHER child is already covered above.
		if el.FindElement(".//VOUCHER") == nil {
			elements = append(elements, el)
		}
	}

	vouchers := make([]Voucher, 0, len(elements))
	for _, el := range elements {
		if voucher, ok := parseVoucher(el); ok {
			vouchers = append(vouchers, voucher)
		}
	}

	sort.Slice(vouchers, func(i, j int) bool {
		if !vouchers[i].Date.Equal(vouchers[j].Date) {
			return vouchers[i].Date.Before(vouchers[j].Date)
		}
		return vouchers[i].Number < vouchers[j].Number
	})
	return vouchers
}

func parseVoucher(el *etree.Element) (Voucher, bool) {
	voucher := Voucher{
		Type:      el.SelectAttrValue("vchtype", ""),
		Number:    firstText(el, ".//VOUCHERNUMBER", ".//NUMBER", ".//VCHNO"),
		GUID:      firstText(el, ".//GUID", ".//MASTERID"),
		Narration: firstText(el, ".//NARRATION", ".//VCHNARRATION", ".//DESCRIPTION"),
		Reference: firstText(el, ".//REFERENCE"),
	}

	if voucher.Type == "" {
		voucher.Type = firstText(el, ".//VOUCHERTYPENAME", ".//VOUCHERTYPE", ".//VCHTYPE")
	}
	if voucher.Number == "" {
		voucher.Number = el.SelectAttrValue("NUMBER", "")
	}
	if voucher.Type == "" && voucher.Number == "" {
		return Voucher{}, false
	}

	if text := firstText(el, ".//DATE", ".//VCHDATE", ".//VOUCHERDATE"); text != "" {
		if date, err := protocol.ParseResponseDate(text); err == nil {
			voucher.Date = date
		}
	}

	for _, path := range []string{".//AMOUNT", ".//TOTALAMOUNT", ".//VOUCHERAMOUNT"} {
		if text := firstText(el, path); text != "" {
			if value, _, ok := parseAmount(text); ok {
				voucher.Amount = value
				break
			}
		}
	}

	voucher.Entries = parseVoucherEntries(el)
	return voucher, true
}

func parseVoucherEntries(el *etree.Element) []VoucherEntry {
	var elements []*etree.Element
	elements = append(elements, el.FindElements(".//LEDGERENTRIES.LIST")...)
	elements = append(elements, el.FindElements(".//ALLLEDGERENTRIES.LIST")...)

	var entries []VoucherEntry
	for _, entryEl := range elements {
		entry := VoucherEntry{
			LedgerName: firstText(entryEl, ".//LEDGERNAME", ".//LEDGER", ".//NAME"),
			Narration:  firstText(entryEl, ".//NARRATION"),
		}
		if entry.LedgerName == "" {
			continue
		}

		text := firstText(entryEl, ".//AMOUNT")
		if text == "" {
			continue
		}
		value, side, ok := parseAmount(text)
		if !ok || value.IsZero() {
			continue
		}
		entry.Amount = value
		entry.Side = side
		entries = append(entries, entry)
	}
	return entries
}

// PartyLedger guesses the counterparty of a transactional voucher: the first
// entry that is not a cash, bank, or tax account.
func (v *Voucher) PartyLedger() string {
	for _, entry := range v.Entries {
		if !isInternalLedger(entry.LedgerName) {
			return entry.LedgerName
		}
	}
	return ""
}

var internalLedgerKeywords = []string{"cash", "bank", "cgst", "sgst", "igst", "tax", "sales", "purchase"}

func isInternalLedger(name string) bool {
	lower := strings.ToLower(name)
	for _, keyword := range internalLedgerKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
