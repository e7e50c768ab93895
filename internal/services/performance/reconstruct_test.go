package performance

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/perfstrip/internal/models"
)

func TestReconstruct_AveragingUpScenario(t *testing.T) {
	set := models.NewTransactionSet("9988", []models.Transaction{
		buy(1, 1, 1000, 10),
		buy(2, 5, 1000, 20),
	})
	prices := dailyPrices(1, 10, 11, 12, 13, 20, 19, 18.5, 17, 17.5, 18)

	rec, err := Reconstruct(set, prices, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "9988", rec.Instrument)
	assert.Equal(t, day(1), rec.EntryDate)
	assert.Equal(t, 15.0, rec.WeightedAvgCost)
	assert.Equal(t, 2000.0, rec.CurrentUnits)
	assert.Equal(t, 18.0, rec.CurrentPrice)
	assert.Equal(t, day(10), rec.AsOf)
	assert.InDelta(t, 20.0, rec.PctChange, 1e-9)
	assert.InDelta(t, 6000.0, rec.UnrealizedPnL, 1e-9)

	require.Len(t, rec.HistoricalSeries, 10)
	assert.Equal(t, 0.0, rec.HistoricalSeries[0].Pct)
	// before the second buy the average is 10
	assert.InDelta(t, 30.0, rec.HistoricalSeries[3].Pct, 1e-9)
	// from day 5 the average is 15
	assert.InDelta(t, (20.0-15)/15*100, rec.HistoricalSeries[4].Pct, 1e-9)
	assert.InDelta(t, 20.0, rec.HistoricalSeries[9].Pct, 1e-9)
}

func TestReconstruct_PartialSellScenario(t *testing.T) {
	set := models.NewTransactionSet("0388", []models.Transaction{
		buy(1, 1, 1000, 10),
		sell(2, 3, 500, 12),
	})
	prices := dailyPrices(1, 10, 11, 12, 12.5)

	rec, err := Reconstruct(set, prices, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 10.0, rec.WeightedAvgCost)
	assert.Equal(t, 500.0, rec.CurrentUnits)
	assert.Equal(t, 5000.0, rec.WeightedAvgCost*rec.CurrentUnits)
	assert.InDelta(t, 25.0, rec.PctChange, 1e-9)
	assert.InDelta(t, 1250.0, rec.UnrealizedPnL, 1e-9)
	// the sell does not move the series: average stays 10
	assert.InDelta(t, 20.0, rec.HistoricalSeries[2].Pct, 1e-9)
}

func TestReconstruct_SingleEntryDay(t *testing.T) {
	set := models.NewTransactionSet("0728", []models.Transaction{buy(1, 4, 2000, 3.1)})
	prices := dailyPrices(4, 3.4)

	rec, err := Reconstruct(set, prices, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, rec.HistoricalSeries, 1)
	assert.Equal(t, models.SeriesPoint{Date: day(4), Pct: 0}, rec.HistoricalSeries[0])
	assert.Nil(t, rec.DailyChangePct)
	assert.InDelta(t, (3.4-3.1)/3.1*100, rec.PctChange, 1e-9)
}

func TestReconstruct_EntryAnchorIsExactlyZero(t *testing.T) {
	set := models.NewTransactionSet("3329", []models.Transaction{buy(1, 1, 100, 10)})
	prices := dailyPrices(1, 14, 15)

	rec, err := Reconstruct(set, prices, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 0.0, rec.HistoricalSeries[0].Pct)
	assert.InDelta(t, 50.0, rec.HistoricalSeries[1].Pct, 1e-9)
}

func TestReconstruct_SeriesStartsAtEntryDate(t *testing.T) {
	set := models.NewTransactionSet("2700", []models.Transaction{buy(1, 4, 100, 10)})
	prices := dailyPrices(1, 8, 9, 9.5, 10, 11)

	rec, err := Reconstruct(set, prices, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, rec.HistoricalSeries, 2)
	assert.Equal(t, day(4), rec.HistoricalSeries[0].Date)
	assert.Equal(t, day(5), rec.HistoricalSeries[1].Date)
}

func TestReconstruct_Clamping(t *testing.T) {
	set := models.NewTransactionSet("0823", []models.Transaction{buy(1, 1, 100, 1)})
	prices := dailyPrices(1, 1, 50, 0.5, 0, 30)

	rec, err := Reconstruct(set, prices, DefaultOptions())
	require.NoError(t, err)

	pcts := make([]float64, len(rec.HistoricalSeries))
	for i, p := range rec.HistoricalSeries {
		pcts[i] = p.Pct
		assert.GreaterOrEqual(t, p.Pct, -100.0)
		assert.LessOrEqual(t, p.Pct, 1000.0)
	}
	assert.Equal(t, []float64{0, 1000, -50, -100, 1000}, pcts)
	// the current figure is never clamped
	assert.InDelta(t, 2900.0, rec.PctChange, 1e-9)
}

func TestReconstruct_CustomClampBounds(t *testing.T) {
	set := models.NewTransactionSet("0823", []models.Transaction{buy(1, 1, 100, 10)})
	prices := dailyPrices(1, 10, 2, 40)
	opts := Options{ClampMin: -50, ClampMax: 200, SellPolicy: SellAllow}

	rec, err := Reconstruct(set, prices, opts)
	require.NoError(t, err)

	assert.Equal(t, -50.0, rec.HistoricalSeries[1].Pct)
	assert.Equal(t, 200.0, rec.HistoricalSeries[2].Pct)
	assert.InDelta(t, 300.0, rec.PctChange, 1e-9)
}

func TestReconstruct_FlatAfterFullExit(t *testing.T) {
	set := models.NewTransactionSet("9988", []models.Transaction{
		buy(1, 1, 100, 10),
		sell(2, 3, 100, 12),
		buy(3, 6, 100, 10),
	})
	prices := dailyPrices(1, 10, 12, 12, 13, 14, 11, 12)

	rec, err := Reconstruct(set, prices, DefaultOptions())
	require.NoError(t, err)

	pcts := make([]float64, len(rec.HistoricalSeries))
	for i, p := range rec.HistoricalSeries {
		pcts[i] = p.Pct
	}
	require.Len(t, pcts, 7)
	assert.Equal(t, 0.0, pcts[0])
	assert.InDelta(t, 20.0, pcts[1], 1e-9)
	assert.Equal(t, []float64{0, 0, 0}, pcts[2:5])
	assert.InDelta(t, 10.0, pcts[5], 1e-9)
	assert.InDelta(t, 20.0, pcts[6], 1e-9)
}

func TestReconstruct_FullExitIsExcluded(t *testing.T) {
	set := models.NewTransactionSet("0388", []models.Transaction{
		buy(1, 1, 100, 10),
		sell(2, 3, 100, 12),
	})

	rec, err := Reconstruct(set, dailyPrices(1, 10, 11, 12, 13), DefaultOptions())
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrNoPosition)
}

func TestReconstruct_OversoldIsExcluded(t *testing.T) {
	set := models.NewTransactionSet("0388", []models.Transaction{
		buy(1, 1, 100, 10),
		sell(2, 3, 300, 12),
	})
	prices := dailyPrices(1, 10, 11, 12, 13)

	_, err := Reconstruct(set, prices, DefaultOptions())
	assert.ErrorIs(t, err, ErrNoPosition)

	_, err = Reconstruct(set, prices, Options{ClampMin: -100, ClampMax: 1000, SellPolicy: SellReject})
	assert.ErrorIs(t, err, ErrOversell)
}

func TestReconstruct_Exclusions(t *testing.T) {
	tests := []struct {
		name   string
		txns   []models.Transaction
		prices []models.PricePoint
		want   error
	}{
		{
			name:   "sells only",
			txns:   []models.Transaction{sell(1, 1, 10, 5)},
			prices: dailyPrices(1, 5, 6),
			want:   ErrNoBuys,
		},
		{
			name:   "empty set",
			prices: dailyPrices(1, 5, 6),
			want:   ErrNoBuys,
		},
		{
			name: "no prices",
			txns: []models.Transaction{buy(1, 1, 10, 5)},
			want: ErrNoPrices,
		},
		{
			name:   "prices end before entry",
			txns:   []models.Transaction{buy(1, 10, 10, 5)},
			prices: dailyPrices(1, 5, 6, 7),
			want:   ErrNoOverlap,
		},
		{
			name: "exited on entry day, re-entered after last price",
			txns: []models.Transaction{
				buy(1, 1, 10, 5),
				sell(2, 1, 10, 6),
				buy(3, 9, 10, 5),
			},
			prices: dailyPrices(1, 5, 6, 7),
			want:   ErrNoOverlap,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Reconstruct(models.NewTransactionSet("0001", tt.txns), tt.prices, DefaultOptions())
			assert.Nil(t, rec)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsExclusion(err))
		})
	}
}

func TestReconstruct_ZeroCostIsGuarded(t *testing.T) {
	set := models.NewTransactionSet("0005", []models.Transaction{buy(1, 1, 100, 0)})

	rec, err := Reconstruct(set, dailyPrices(1, 5, 6), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 0.0, rec.WeightedAvgCost)
	assert.Equal(t, 0.0, rec.PctChange)
	assert.Equal(t, 600.0, rec.UnrealizedPnL)
	for _, p := range rec.HistoricalSeries {
		assert.Equal(t, 0.0, p.Pct)
	}
}

func TestReconstruct_DailyChange(t *testing.T) {
	set := models.NewTransactionSet("9988", []models.Transaction{
		buy(1, 1, 1000, 10),
		buy(2, 2, 1000, 20),
	})

	rec, err := Reconstruct(set, dailyPrices(1, 10, 20, 17, 18), DefaultOptions())
	require.NoError(t, err)

	require.NotNil(t, rec.DailyChangePct)
	assert.Equal(t, 17.0, rec.PreviousPrice)
	assert.InDelta(t, 20.0-(17.0-15)/15*100, *rec.DailyChangePct, 1e-9)
}

func TestReconstruct_UnsortedPricesAreSorted(t *testing.T) {
	set := models.NewTransactionSet("9988", []models.Transaction{buy(1, 1, 10, 10)})
	sorted := dailyPrices(1, 10, 11, 12)
	reversed := []models.PricePoint{sorted[2], sorted[1], sorted[0]}

	a, err := Reconstruct(set, sorted, DefaultOptions())
	require.NoError(t, err)
	b, err := Reconstruct(set, reversed, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, day(1), reversed[2].Date, "input must not be reordered")
}

func TestReconstruct_IncrementalMatchesNaiveReplay(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		var txns []models.Transaction
		n := 1 + rng.Intn(25)
		for i := 0; i < n; i++ {
			d := 1 + rng.Intn(60)
			units := float64(1+rng.Intn(20)) * 100
			price := 1 + rng.Float64()*50
			if rng.Intn(3) == 0 {
				txns = append(txns, sell(i, d, units, price))
			} else {
				txns = append(txns, buy(i, d, units, price))
			}
		}
		set := models.NewTransactionSet("0001", txns)

		values := make([]float64, 70)
		for i := range values {
			values[i] = 0.5 + rng.Float64()*80
		}
		prices := dailyPrices(1, values...)
		opts := DefaultOptions()

		want := naiveSeries(set, prices, opts)
		got, err := historicalSeries(set, prices[firstIndexOnOrAfterEntry(set, prices):], opts)
		require.NoError(t, err)
		if len(want) == 0 {
			assert.Empty(t, got, "trial %d", trial)
			continue
		}
		assert.Equal(t, want, got, "trial %d", trial)
	}
}

func firstIndexOnOrAfterEntry(set models.TransactionSet, prices []models.PricePoint) int {
	first, ok := set.FirstBuy()
	if !ok {
		return len(prices)
	}
	for i, p := range prices {
		if !p.Date.Before(first.Date) {
			return i
		}
	}
	return len(prices)
}
