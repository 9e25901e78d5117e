package protocol

import (
	"fmt"
	"strings"
	"time"
)

// Date layouts used by the gateway. Requests take DD-MM-YYYY in
// SVFROMDATE/SVTODATE; responses carry dates as YYYYMMDD.
const (
	requestDateLayout  = "02-01-2006"
	responseDateLayout = "20060102"
)

// FormatWireDate renders a time as a request date parameter (DD-MM-YYYY).
func FormatWireDate(t time.Time) string {
	return t.Format(requestDateLayout)
}

// ParseResponseDate parses a date from a gateway response (YYYYMMDD).
// Some reports pad or hyphenate dates; separators are tolerated.
func ParseResponseDate(s string) (time.Time, error) {
	cleaned := strings.NewReplacer("-", "", "/", "", " ", "").Replace(strings.TrimSpace(s))
	t, err := time.Parse(responseDateLayout, cleaned)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse response date %q: %w", s, err)
	}
	return t, nil
}

// DateRangeParams builds the from/to parameters shared by the day book and
// voucher list templates.
func DateRangeParams(from, to time.Time) Params {
	return Params{
		"from_date": FormatWireDate(from),
		"to_date":   FormatWireDate(to),
	}
}
