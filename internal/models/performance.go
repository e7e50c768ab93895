package models

import "time"

// Position is a weighted-average cost position. It is always derived by
// replaying transactions and never stored.
type Position struct {
	TotalCost  float64 `json:"total_cost"`
	TotalUnits float64 `json:"total_units"`
}

// AverageCost returns cost per unit, or 0 when no units are held.
func (p Position) AverageCost() float64 {
	if p.TotalUnits <= 0 {
		return 0
	}
	return p.TotalCost / p.TotalUnits
}

// SeriesPoint is one date of a holding's return history, in percent.
type SeriesPoint struct {
	Date time.Time `json:"date"`
	Pct  float64   `json:"pct"`
}

// PerformanceRecord is the reconstructed performance of one instrument.
type PerformanceRecord struct {
	Instrument       string        `json:"instrument"`
	EntryDate        time.Time     `json:"entry_date"` // first buy
	WeightedAvgCost  float64       `json:"weighted_avg_cost"`
	CurrentPrice     float64       `json:"current_price"`
	CurrentUnits     float64       `json:"current_units"`
	PctChange        float64       `json:"pct_change"` // unclamped
	UnrealizedPnL    float64       `json:"unrealized_pnl"`
	HistoricalSeries []SeriesPoint `json:"historical_series"`

	AsOf           time.Time     `json:"as_of"`                      // date of CurrentPrice
	PreviousPrice  float64       `json:"previous_price,omitempty"`   // price one point before AsOf
	DailyChangePct *float64      `json:"daily_change_pct,omitempty"` // return today minus return yesterday
	Transactions   []Transaction `json:"transactions,omitempty"`
}

// MarketValue returns the position value at the current price.
func (r *PerformanceRecord) MarketValue() float64 {
	return r.CurrentPrice * r.CurrentUnits
}

// CostBasis returns the cost of the units still held.
func (r *PerformanceRecord) CostBasis() float64 {
	return r.WeightedAvgCost * r.CurrentUnits
}
