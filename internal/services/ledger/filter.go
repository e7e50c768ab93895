package ledger

import (
	"strings"

	"github.com/bobmcallan/perfstrip/internal/common"
	"github.com/bobmcallan/perfstrip/internal/models"
)

// Filter decides whether a ledger row belongs to the instrument class being
// analysed. code is the row's normalised instrument code.
type Filter func(row models.LedgerRow, code string) bool

// NumericCodeFilter accepts codes made of exactly digits decimal digits.
func NumericCodeFilter(digits int) Filter {
	return func(_ models.LedgerRow, code string) bool {
		return isDigits(code) && len(code) == digits
	}
}

// CategoryFilter accepts rows whose category contains category
// (case-insensitive) and whose code is a digits-long number.
func CategoryFilter(category string, digits int) Filter {
	want := strings.ToLower(strings.TrimSpace(category))
	numeric := NumericCodeFilter(digits)
	return func(row models.LedgerRow, code string) bool {
		if !strings.Contains(strings.ToLower(row.Category), want) {
			return false
		}
		return numeric(row, code)
	}
}

// FilterFromConfig returns the filter selected by the [ledger] section.
func FilterFromConfig(cfg common.LedgerConfig) Filter {
	if cfg.Filter == common.FilterCategory {
		return CategoryFilter(cfg.Category, cfg.CodeDigits)
	}
	return NumericCodeFilter(cfg.CodeDigits)
}

// NormalizeCode trims an instrument code, drops an exchange suffix such as
// ".HK" and restores leading zeros that spreadsheets strip from numeric
// codes ("388" becomes "0388" for 4 digits). A digits of zero or less
// leaves the code unpadded.
func NormalizeCode(raw string, digits int) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if i := strings.LastIndex(code, "."); i > 0 && !isDigits(code[i+1:]) {
		code = code[:i]
	}
	code = strings.TrimSuffix(code, ".0")
	if isDigits(code) && len(code) < digits {
		code = strings.Repeat("0", digits-len(code)) + code
	}
	return code
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
