package ledger

import (
	"sort"
	"time"

	"github.com/bobmcallan/perfstrip/internal/common"
	"github.com/bobmcallan/perfstrip/internal/models"
	"github.com/bobmcallan/perfstrip/internal/services/performance"
)

// Stats counts what normalization kept and dropped. Dropped rows are data
// noise, not errors.
type Stats struct {
	RowsRead    int      `json:"rows_read"`
	OutOfClass  int      `json:"out_of_class"`
	BadDate     int      `json:"bad_date"`
	BadType     int      `json:"bad_type"`
	NonPositive int      `json:"non_positive"`
	Accepted    int      `json:"accepted"`
	Instruments int      `json:"instruments"`
	NotHeld     []string `json:"not_held,omitempty"`
	NoBuys      []string `json:"no_buys,omitempty"`
	Excluded    []string `json:"excluded,omitempty"`
}

// Normalizer turns raw ledger rows into per-instrument transaction sets.
type Normalizer struct {
	filter      Filter
	pad         int
	holdingRule string
	exclude     map[string]bool
}

// NewNormalizer builds a normalizer from the [ledger] section.
func NewNormalizer(cfg common.LedgerConfig) *Normalizer {
	pad := 0
	if cfg.PadCodes {
		pad = cfg.CodeDigits
	}
	exclude := make(map[string]bool, len(cfg.Exclude))
	for _, code := range cfg.Exclude {
		exclude[NormalizeCode(code, pad)] = true
	}
	rule := cfg.HoldingRule
	if rule == "" {
		rule = common.HoldingCumulative
	}
	return &Normalizer{
		filter:      FilterFromConfig(cfg),
		pad:         pad,
		holdingRule: rule,
		exclude:     exclude,
	}
}

type cumulativeMark struct {
	date  time.Time
	seq   int
	units float64
}

// Normalize groups rows by instrument and keeps instruments that are still
// held. Row order in the input is the tie-breaker for same-day transactions.
func (n *Normalizer) Normalize(rows []models.LedgerRow) (map[string]models.TransactionSet, *Stats) {
	stats := &Stats{RowsRead: len(rows)}
	txns := make(map[string][]models.Transaction)
	latest := make(map[string]cumulativeMark)

	for seq, row := range rows {
		code := NormalizeCode(row.Instrument, n.pad)
		if !n.filter(row, code) {
			stats.OutOfClass++
			continue
		}

		date, ok := ParseDate(row.Date)
		if !ok {
			stats.BadDate++
			continue
		}

		mark := cumulativeMark{date: date, seq: seq, units: ParseFloat(row.CumulativeUnits)}
		if prev, seen := latest[code]; !seen || !mark.date.Before(prev.date) {
			latest[code] = mark
		}

		kind, ok := models.ParseTransactionKind(row.Type)
		if !ok {
			stats.BadType++
			continue
		}

		units := ParseFloat(row.Units)
		price := ParseFloat(row.UnitPrice)
		if units <= 0 || price <= 0 {
			stats.NonPositive++
			continue
		}

		txns[code] = append(txns[code], models.Transaction{
			Seq:       seq,
			Date:      date,
			Kind:      kind,
			Units:     units,
			UnitPrice: price,
		})
		stats.Accepted++
	}

	codes := make([]string, 0, len(latest))
	for code := range latest {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make(map[string]models.TransactionSet)
	for _, code := range codes {
		if n.exclude[code] {
			stats.Excluded = append(stats.Excluded, code)
			continue
		}
		set := models.NewTransactionSet(code, txns[code])
		if set.BuyCount() == 0 {
			stats.NoBuys = append(stats.NoBuys, code)
			continue
		}
		if !n.isHeld(set, latest[code]) {
			stats.NotHeld = append(stats.NotHeld, code)
			continue
		}
		out[code] = set
	}
	stats.Instruments = len(out)

	return out, stats
}

func (n *Normalizer) isHeld(set models.TransactionSet, mark cumulativeMark) bool {
	if n.holdingRule == common.HoldingReplay {
		pos, _ := performance.Replay(set, performance.SellAllow)
		return pos.TotalUnits > 0
	}
	return mark.units > 0
}
