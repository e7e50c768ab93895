package performance

import (
	"sort"

	"github.com/bobmcallan/perfstrip/internal/models"
)

// Options tunes a reconstruction.
type Options struct {
	// ClampMin and ClampMax bound every value of the historical series.
	// They keep a chart's scale readable and do not apply to PctChange.
	ClampMin   float64
	ClampMax   float64
	SellPolicy SellPolicy
}

// DefaultOptions returns the -100%/+1000% clamp and the allow policy.
func DefaultOptions() Options {
	return Options{ClampMin: -100, ClampMax: 1000, SellPolicy: SellAllow}
}

func (o Options) clamp(v float64) float64 {
	if v < o.ClampMin {
		return o.ClampMin
	}
	if v > o.ClampMax {
		return o.ClampMax
	}
	return v
}

// ReturnPct is the percentage gain of price over avgCost, or 0 when avgCost
// is zero.
func ReturnPct(price, avgCost float64) float64 {
	if avgCost == 0 {
		return 0
	}
	return (price - avgCost) / avgCost * 100
}

// Reconstruct replays one instrument's transactions against its price
// series. The historical series starts at the first buy, is anchored at
// exactly 0%, and reports 0% for every date after a full exit. The current
// figures come from a separate full replay of the whole set.
//
// prices should be sorted ascending; an unsorted series is sorted on a copy.
func Reconstruct(set models.TransactionSet, prices []models.PricePoint, opts Options) (*models.PerformanceRecord, error) {
	first, ok := set.FirstBuy()
	if !ok {
		return nil, ErrNoBuys
	}
	if len(prices) == 0 {
		return nil, ErrNoPrices
	}
	if !sort.SliceIsSorted(prices, func(i, j int) bool { return prices[i].Date.Before(prices[j].Date) }) {
		sorted := make([]models.PricePoint, len(prices))
		copy(sorted, prices)
		models.SortPricePoints(sorted)
		prices = sorted
	}

	entry := first.Date
	start := sort.Search(len(prices), func(i int) bool {
		return !prices[i].Date.Before(entry)
	})
	window := prices[start:]
	if len(window) == 0 {
		return nil, ErrNoOverlap
	}

	final, err := Replay(set, opts.SellPolicy)
	if err != nil {
		return nil, err
	}
	if final.TotalUnits <= 0 {
		return nil, ErrNoPosition
	}

	series, err := historicalSeries(set, window, opts)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, ErrNoOverlap
	}

	avg := final.AverageCost()
	last := prices[len(prices)-1]

	rec := &models.PerformanceRecord{
		Instrument:       set.Instrument(),
		EntryDate:        entry,
		WeightedAvgCost:  avg,
		CurrentPrice:     last.Price,
		CurrentUnits:     final.TotalUnits,
		PctChange:        ReturnPct(last.Price, avg),
		UnrealizedPnL:    (last.Price - avg) * final.TotalUnits,
		HistoricalSeries: series,
		AsOf:             last.Date,
		Transactions:     set.Transactions(),
	}

	if len(prices) >= 2 {
		prev := prices[len(prices)-2].Price
		daily := rec.PctChange - ReturnPct(prev, avg)
		rec.PreviousPrice = prev
		rec.DailyChangePct = &daily
	}

	return rec, nil
}

// historicalSeries walks the price window once, advancing the position
// incrementally instead of replaying from scratch on every date.
func historicalSeries(set models.TransactionSet, window []models.PricePoint, opts Options) ([]models.SeriesPoint, error) {
	r := newReplayer(set, opts.SellPolicy)
	series := make([]models.SeriesPoint, 0, len(window))

	for _, p := range window {
		if err := r.advanceTo(p.Date); err != nil {
			return nil, err
		}
		switch {
		case r.position.TotalUnits > 0:
			pct := ReturnPct(p.Price, r.position.AverageCost())
			series = append(series, models.SeriesPoint{Date: p.Date, Pct: opts.clamp(pct)})
		case len(series) > 0:
			// flat after a full exit
			series = append(series, models.SeriesPoint{Date: p.Date, Pct: 0})
		}
	}

	if len(series) > 0 {
		series[0].Pct = 0
	}
	return series, nil
}
