package performance

import "errors"

// Exclusion reasons. Reconstruct returns one of these when an instrument
// yields no record; callers skip the instrument rather than fail the run.
var (
	// ErrNoBuys means the transaction set never bought the instrument.
	ErrNoBuys = errors.New("no buy transactions")
	// ErrNoPrices means no price series was supplied for the instrument.
	ErrNoPrices = errors.New("no price series")
	// ErrNoOverlap means no price date falls on or after the entry date
	// while a position was held.
	ErrNoOverlap = errors.New("no price data overlapping the holding period")
	// ErrNoPosition means the full replay ends with zero or negative units.
	ErrNoPosition = errors.New("no open position after full replay")
	// ErrOversell means a sell exceeded the units held under the reject policy.
	ErrOversell = errors.New("sell exceeds units held")
)

// IsExclusion reports whether err is one of the per-instrument exclusion
// reasons above.
func IsExclusion(err error) bool {
	return errors.Is(err, ErrNoBuys) ||
		errors.Is(err, ErrNoPrices) ||
		errors.Is(err, ErrNoOverlap) ||
		errors.Is(err, ErrNoPosition) ||
		errors.Is(err, ErrOversell)
}
