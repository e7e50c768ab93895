package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseAmount normalises a currency or quantity string to a signed decimal.
// It strips currency markers ("$", "HK$"), thousands separators and
// whitespace, and reads "(1,234.50)" as -1234.50. ok is false when nothing
// numeric remains.
func ParseAmount(s string) (decimal.Decimal, bool) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return decimal.Zero, false
	}

	cleaned = strings.NewReplacer("HK$", "", "US$", "", "$", "", ",", "", " ", "", "\u00a0", "").Replace(cleaned)

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	if cleaned == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// ParseFloat is ParseAmount converted to float64, 0 when unparseable.
func ParseFloat(s string) float64 {
	d, ok := ParseAmount(s)
	if !ok {
		return 0
	}
	f, _ := d.Float64()
	return f
}

// Day-first and month-first slash dates are ambiguous; month-first wins
// when both parse, matching the ledger exports this was built for. The
// single-digit layouts also accept zero-padded fields.
var primaryDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
	"2006-1-2",
	"2006/1/2",
	"1/2/2006",
	"2/1/2006",
}

var fallbackDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"2-Jan-2006",
	"20060102",
}

// ParseDate parses a ledger date into midnight UTC. ok is false when no
// accepted layout matches.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range primaryDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), true
		}
	}
	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
