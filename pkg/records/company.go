package records

import (
	"fmt"
	"time"

	"github.com/beevik/etree"

	"github.com/tallykit/tallygate/pkg/protocol"
)

// Company holds the company master details reported by the gateway.
type Company struct {
	Name   string `json:"name"`
	GUID   string `json:"guid,omitempty"`
	Number string `json:"company_number,omitempty"`
	Alias  string `json:"alias,omitempty"`

	AddressLines []string `json:"address_lines,omitempty"`
	State        string   `json:"state,omitempty"`
	Country      string   `json:"country,omitempty"`
	PostalCode   string   `json:"postal_code,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Email        string   `json:"email,omitempty"`
	Website      string   `json:"website,omitempty"`

	FinancialYearStart time.Time `json:"financial_year_start,omitempty"`
	FinancialYearEnd   time.Time `json:"financial_year_end,omitempty"`

	GSTIN string `json:"gstin,omitempty"`
	PAN   string `json:"pan,omitempty"`

	BaseCurrencySymbol string `json:"base_currency_symbol,omitempty"`
	BaseCurrencyName   string `json:"base_currency_name,omitempty"`

	MaintainsBillWise bool `json:"maintains_bill_wise"`
	UsesCostCentres   bool `json:"uses_cost_centres"`
	UsesMultiCurrency bool `json:"uses_multi_currency"`
}

// ParseCompany extracts company details from a validated response document.
// The company element appears either as TALLYMESSAGE[@vchtype='Company'] or
// as a bare COMPANY element depending on the report used.
func ParseCompany(doc *etree.Document) (*Company, error) {
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("document has no root element")
	}

	el := root.FindElement("//TALLYMESSAGE[@vchtype='Company']")
	if el == nil {
		el = root.FindElement("//COMPANY")
	}
	if el == nil {
		el = root
	}

	company := &Company{
		Name:               firstText(el, ".//NAME"),
		GUID:               firstText(el, ".//GUID", ".//REMOTEID"),
		Number:             firstText(el, ".//COMPANYNUMBER"),
		Alias:              firstText(el, ".//ALIAS"),
		State:              firstText(el, ".//STATE"),
		Country:            firstText(el, ".//COUNTRY"),
		PostalCode:         firstText(el, ".//PINCODE"),
		Phone:              firstText(el, ".//PHONENUMBER", ".//MOBILENUMBER"),
		Email:              firstText(el, ".//EMAIL"),
		Website:            firstText(el, ".//WEBSITE"),
		GSTIN:              firstText(el, ".//GSTIN", ".//GSTREGISTRATIONNUMBER"),
		PAN:                firstText(el, ".//INCOMETAXNUMBER", ".//PAN"),
		BaseCurrencySymbol: firstText(el, ".//BASECURRENCYSYMBOL"),
		BaseCurrencyName:   firstText(el, ".//BASECURRENCY"),
		MaintainsBillWise:  yes(el, ".//ISBILLWISEON"),
		UsesCostCentres:    yes(el, ".//ISCOSTCENTRESON"),
		UsesMultiCurrency:  yes(el, ".//ISMULTICURRENCYON"),
	}

	if company.Name == "" {
		return nil, fmt.Errorf("no company name found in response")
	}

	for i := 1; i <= 5; i++ {
		line := firstText(el, fmt.Sprintf(".//ADDRESS%d", i))
		if line != "" {
			company.AddressLines = append(company.AddressLines, line)
		}
	}

	if start := firstText(el, ".//STARTINGFROM"); start != "" {
		if t, err := protocol.ParseResponseDate(start); err == nil {
			company.FinancialYearStart = t
		}
	}
	if end := firstText(el, ".//ENDINGAT"); end != "" {
		if t, err := protocol.ParseResponseDate(end); err == nil {
			company.FinancialYearEnd = t
		}
	}

	return company, nil
}

// FinancialYearLabel renders the financial year for display, e.g.
// "2024-25". Empty when the dates are unknown.
func (c *Company) FinancialYearLabel() string {
	if c.FinancialYearStart.IsZero() || c.FinancialYearEnd.IsZero() {
		return ""
	}
	start := c.FinancialYearStart.Year()
	end := c.FinancialYearEnd.Year()
	if start == end {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d-%02d", start, end%100)
}
