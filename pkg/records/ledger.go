package records

import (
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// Ledger is one account from the chart of accounts.
type Ledger struct {
	Name        string `json:"name"`
	GUID        string `json:"guid,omitempty"`
	Alias       string `json:"alias,omitempty"`
	ParentGroup string `json:"parent_group,omitempty"`

	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	BalanceSide    Side            `json:"balance_side"`

	IsRevenue        bool `json:"is_revenue"`
	IsDeemedPositive bool `json:"is_deemed_positive"`
}

// ParseLedgers extracts all ledger accounts from a validated response
// document, sorted by name. Elements without a usable name are skipped.
func ParseLedgers(doc *etree.Document) []Ledger {
	root := doc.Root()
	if root == nil {
		return nil
	}

	var elements []*etree.Element
	elements = append(elements, root.FindElements("//LEDGER")...)
	elements = append(elements, root.FindElements("//TALLYMESSAGE[@vchtype='Ledger']")...)
	elements = append(elements, root.FindElements("//DSP_NAME")...)

	ledgers := make([]Ledger, 0, len(elements))
	seen := make(map[string]bool, len(elements))
	for _, el := range elements {
		ledger, ok := parseLedger(el)
		if !ok || seen[ledger.Name] {
			continue
		}
		seen[ledger.Name] = true
		ledgers = append(ledgers, ledger)
	}

	sort.Slice(ledgers, func(i, j int) bool {
		return strings.ToLower(ledgers[i].Name) < strings.ToLower(ledgers[j].Name)
	})
	return ledgers
}

func parseLedger(el *etree.Element) (Ledger, bool) {
	ledger := Ledger{
		Name:             firstText(el, ".//NAME", ".//LEDGERNAME"),
		GUID:             firstText(el, ".//GUID", ".//MASTERID"),
		Alias:            firstText(el, ".//ALIAS"),
		ParentGroup:      firstText(el, ".//PARENT", ".//PARENTGROUP", ".//GROUP"),
		IsRevenue:        yes(el, ".//ISREVENUE"),
		IsDeemedPositive: yes(el, ".//ISDEEMEDPOSITIVE"),
	}

	if ledger.Name == "" {
		// DSP_NAME elements carry the name as their own text, and some
		// exports put it in a NAME attribute.
		if text := strings.TrimSpace(el.Text()); text != "" {
			ledger.Name = text
		} else if attr := el.SelectAttrValue("NAME", ""); attr != "" {
			ledger.Name = strings.TrimSpace(attr)
		}
	}
	if ledger.Name == "" {
		return Ledger{}, false
	}

	ledger.BalanceSide = SideZero
	for _, path := range []string{".//CLOSINGBALANCE", ".//CURRENTBALANCE", ".//BALANCE", ".//AMOUNT"} {
		if text := firstText(el, path); text != "" {
			if value, side, ok := parseAmount(text); ok {
				ledger.ClosingBalance = value
				ledger.BalanceSide = side
				break
			}
		}
	}

	if text := firstText(el, ".//OPENINGBALANCE"); text != "" {
		if value, _, ok := parseAmount(text); ok {
			ledger.OpeningBalance = value
		}
	}

	return ledger, true
}
