package performance

import (
	"time"

	"github.com/bobmcallan/perfstrip/internal/models"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return base.AddDate(0, 0, n-1)
}

func buy(seq, d int, units, price float64) models.Transaction {
	return models.Transaction{Seq: seq, Date: day(d), Kind: models.KindBuy, Units: units, UnitPrice: price}
}

func sell(seq, d int, units, price float64) models.Transaction {
	return models.Transaction{Seq: seq, Date: day(d), Kind: models.KindSell, Units: units, UnitPrice: price}
}

// dailyPrices returns one point per day from day `from` for len(values) days.
func dailyPrices(from int, values ...float64) []models.PricePoint {
	out := make([]models.PricePoint, len(values))
	for i, v := range values {
		out[i] = models.PricePoint{Date: day(from + i), Price: v}
	}
	return out
}

// naiveSeries is the per-date full recompute: for every price date it
// replays all transactions up to that date into a fresh position.
func naiveSeries(set models.TransactionSet, prices []models.PricePoint, opts Options) []models.SeriesPoint {
	first, ok := set.FirstBuy()
	if !ok {
		return nil
	}
	var series []models.SeriesPoint
	for _, p := range prices {
		if p.Date.Before(first.Date) {
			continue
		}
		var pos models.Position
		for _, t := range set.Transactions() {
			if t.Date.After(p.Date) {
				continue
			}
			_ = Apply(&pos, t, opts.SellPolicy)
		}
		if pos.TotalUnits > 0 {
			avg := pos.TotalCost / pos.TotalUnits
			series = append(series, models.SeriesPoint{Date: p.Date, Pct: opts.clamp(ReturnPct(p.Price, avg))})
		} else if len(series) > 0 {
			series = append(series, models.SeriesPoint{Date: p.Date, Pct: 0})
		}
	}
	if len(series) > 0 {
		series[0].Pct = 0
	}
	return series
}
