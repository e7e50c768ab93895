package performance

import (
	"fmt"
	"time"

	"github.com/bobmcallan/perfstrip/internal/models"
)

// SellPolicy decides what happens when a sell exceeds the units held.
type SellPolicy string

const (
	// SellAllow applies the sell anyway, which can leave units negative.
	SellAllow SellPolicy = "allow"
	// SellReject fails the replay with ErrOversell.
	SellReject SellPolicy = "reject"
)

// oversellTolerance absorbs float noise when comparing a sell to holdings.
const oversellTolerance = 1e-9

// Apply folds one transaction into pos using the weighted-average rule.
// A buy adds its cost and units. A sell removes units at the current
// average cost, so the average itself is unchanged. A sell while no units
// are held is a no-op under SellAllow.
func Apply(pos *models.Position, t models.Transaction, policy SellPolicy) error {
	switch t.Kind {
	case models.KindBuy:
		pos.TotalCost += t.Units * t.UnitPrice
		pos.TotalUnits += t.Units
	case models.KindSell:
		if policy == SellReject && t.Units > pos.TotalUnits+oversellTolerance {
			return fmt.Errorf("%w: selling %g on %s while holding %g",
				ErrOversell, t.Units, t.Date.Format("2006-01-02"), pos.TotalUnits)
		}
		if pos.TotalUnits > 0 {
			costPerUnit := pos.TotalCost / pos.TotalUnits
			pos.TotalCost -= costPerUnit * t.Units
			pos.TotalUnits -= t.Units
		}
	}
	return nil
}

// Replay folds every transaction of the set, in order, into a fresh position.
func Replay(set models.TransactionSet, policy SellPolicy) (models.Position, error) {
	var pos models.Position
	for i := 0; i < set.Len(); i++ {
		if err := Apply(&pos, set.At(i), policy); err != nil {
			return pos, err
		}
	}
	return pos, nil
}

// replayer advances a position through a transaction set date by date.
// Transactions are already sorted; cursor is the next one to apply.
type replayer struct {
	set      models.TransactionSet
	policy   SellPolicy
	cursor   int
	position models.Position
}

func newReplayer(set models.TransactionSet, policy SellPolicy) *replayer {
	return &replayer{set: set, policy: policy}
}

// advanceTo applies every pending transaction dated on or before cutoff.
// The resulting position equals a fresh replay of all transactions up to
// cutoff, because the fold is order-dependent only.
func (r *replayer) advanceTo(cutoff time.Time) error {
	for r.cursor < r.set.Len() {
		t := r.set.At(r.cursor)
		if t.Date.After(cutoff) {
			break
		}
		if err := Apply(&r.position, t, r.policy); err != nil {
			return err
		}
		r.cursor++
	}
	return nil
}
