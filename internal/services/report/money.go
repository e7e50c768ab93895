package report

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatMoney renders amount in currency, e.g. "HK$1,234.50". Unknown
// currency codes fall back to a plain two-decimal number with the code.
func FormatMoney(amount float64, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return fmt.Sprintf("%.2f %s", amount, currency)
	}

	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	minor := decimal.NewFromFloat(amount).Mul(factor).Round(0)
	return money.New(minor.IntPart(), currency).Display()
}

// FormatSignedMoney is FormatMoney with an explicit sign for gains.
func FormatSignedMoney(amount float64, currency string) string {
	if amount > 0 {
		return "+" + FormatMoney(amount, currency)
	}
	return FormatMoney(amount, currency)
}

// FormatPct renders a percentage with an explicit sign.
func FormatPct(pct float64) string {
	return fmt.Sprintf("%+.2f%%", pct)
}

// FormatUnits renders a unit count with thousands separators.
func FormatUnits(units float64) string {
	d := decimal.NewFromFloat(units)
	if d.Equal(d.Truncate(0)) {
		return groupThousands(d.StringFixed(0))
	}
	return groupThousands(d.StringFixed(2))
}

func groupThousands(s string) string {
	sign := ""
	if len(s) > 0 && s[0] == '-' {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			intPart, frac = s[:i], s[i:]
			break
		}
	}
	var out []byte
	for i := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, intPart[i])
	}
	return sign + string(out) + frac
}
