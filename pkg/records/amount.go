// Package records parses validated gateway XML into domain records: company
// details, ledger accounts, and vouchers. Parsers tolerate the several XML
// shapes TallyPrime produces for the same report and skip elements they
// cannot make sense of rather than failing the whole document.
package records

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// Side marks whether an amount is a debit or a credit.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
	SideZero   Side = "zero"
)

// amountCleaner strips currency symbols and grouping characters TallyPrime
// mixes into amount fields.
var amountCleaner = strings.NewReplacer(",", "", "₹", "", "Rs.", "")

// parseAmount converts a TallyPrime amount string to a decimal and its side.
// Credits are marked by a trailing Cr/Credit or a leading minus sign; the
// returned value is always non-negative.
func parseAmount(text string) (decimal.Decimal, Side, bool) {
	text = strings.TrimSpace(amountCleaner.Replace(text))
	if text == "" {
		return decimal.Zero, SideZero, false
	}

	side := SideDebit
	switch {
	case strings.HasSuffix(text, " Cr"), strings.HasSuffix(text, " Credit"):
		side = SideCredit
		text = strings.TrimSuffix(strings.TrimSuffix(text, " Credit"), " Cr")
	case strings.HasSuffix(text, " Dr"), strings.HasSuffix(text, " Debit"):
		text = strings.TrimSuffix(strings.TrimSuffix(text, " Debit"), " Dr")
	}
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "-") {
		side = SideCredit
		text = strings.TrimPrefix(text, "-")
	}

	value, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, SideZero, false
	}
	if value.IsZero() {
		side = SideZero
	}
	return value, side, true
}

// firstText returns the trimmed text of the first path that resolves to an
// element with non-empty text. Paths must be element-relative (".//TAG");
// a path starting with "//" would search the whole document.
func firstText(el *etree.Element, paths ...string) string {
	for _, path := range paths {
		if found := el.FindElement(path); found != nil {
			if text := strings.TrimSpace(found.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

// yes reports whether a TallyPrime boolean field is set.
func yes(el *etree.Element, path string) bool {
	return strings.EqualFold(firstText(el, path), "yes")
}
