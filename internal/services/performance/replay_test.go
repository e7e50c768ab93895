package performance

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/perfstrip/internal/models"
)

func TestReplay_BuysOnly(t *testing.T) {
	txns := []models.Transaction{
		buy(1, 1, 100, 10),
		buy(2, 3, 300, 14),
		buy(3, 7, 600, 9.5),
	}
	set := models.NewTransactionSet("0388", txns)

	// running totals at every step
	var pos models.Position
	runningUnits, runningCost := 0.0, 0.0
	for _, tx := range set.Transactions() {
		require.NoError(t, Apply(&pos, tx, SellAllow))
		runningUnits += tx.Units
		runningCost += tx.Units * tx.UnitPrice
		assert.Equal(t, runningUnits, pos.TotalUnits)
		assert.InDelta(t, runningCost/runningUnits, pos.AverageCost(), 1e-12)
	}

	final, err := Replay(set, SellAllow)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, final.TotalUnits)
	assert.InDelta(t, (100*10+300*14+600*9.5)/1000.0, final.AverageCost(), 1e-12)
}

func TestReplay_SellKeepsAverageCost(t *testing.T) {
	tests := []struct {
		name      string
		held      float64
		avg       float64
		sellUnits float64
	}{
		{"half", 1000, 10, 500},
		{"small", 2000, 15, 1},
		{"all", 400, 7.25, 400},
		{"fractional", 10.5, 3.3, 2.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := models.Position{TotalCost: tt.held * tt.avg, TotalUnits: tt.held}
			require.NoError(t, Apply(&pos, sell(1, 2, tt.sellUnits, 99), SellAllow))

			assert.InDelta(t, tt.held-tt.sellUnits, pos.TotalUnits, 1e-9)
			assert.InDelta(t, tt.avg*(tt.held-tt.sellUnits), pos.TotalCost, 1e-9)
			if pos.TotalUnits > 0 {
				assert.InDelta(t, tt.avg, pos.AverageCost(), 1e-9)
			}
		})
	}
}

func TestReplay_SellPriceDoesNotMatter(t *testing.T) {
	a := models.NewTransactionSet("1", []models.Transaction{buy(1, 1, 1000, 10), sell(2, 3, 500, 12)})
	b := models.NewTransactionSet("1", []models.Transaction{buy(1, 1, 1000, 10), sell(2, 3, 500, 1)})

	pa, err := Replay(a, SellAllow)
	require.NoError(t, err)
	pb, err := Replay(b, SellAllow)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
	assert.Equal(t, 500.0, pa.TotalUnits)
	assert.Equal(t, 5000.0, pa.TotalCost)
	assert.Equal(t, 10.0, pa.AverageCost())
}

func TestReplay_OversellAllowed(t *testing.T) {
	set := models.NewTransactionSet("3690", []models.Transaction{
		buy(1, 1, 100, 10),
		sell(2, 2, 150, 12),
		sell(3, 3, 50, 12), // no-op: nothing held
	})

	pos, err := Replay(set, SellAllow)
	require.NoError(t, err)
	assert.Equal(t, -50.0, pos.TotalUnits)
	assert.Equal(t, -500.0, pos.TotalCost)
	assert.Equal(t, 0.0, pos.AverageCost())
}

func TestReplay_SellBeforeAnyBuyIsNoop(t *testing.T) {
	set := models.NewTransactionSet("0823", []models.Transaction{
		sell(1, 1, 10, 5),
		buy(2, 2, 100, 10),
	})

	pos, err := Replay(set, SellAllow)
	require.NoError(t, err)
	assert.Equal(t, models.Position{TotalCost: 1000, TotalUnits: 100}, pos)
}

func TestReplay_OversellRejected(t *testing.T) {
	set := models.NewTransactionSet("3690", []models.Transaction{
		buy(1, 1, 100, 10),
		sell(2, 2, 150, 12),
	})

	_, err := Replay(set, SellReject)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOversell))
	assert.True(t, IsExclusion(err))
}

func TestReplay_RejectToleratesFloatNoise(t *testing.T) {
	set := models.NewTransactionSet("3690", []models.Transaction{
		buy(1, 1, 0.3, 10),
		sell(2, 2, 0.1, 12),
		sell(3, 3, 0.2, 12),
	})

	pos, err := Replay(set, SellReject)
	require.NoError(t, err)
	assert.InDelta(t, 0, pos.TotalUnits, 1e-12)
}

func TestReplayer_AdvanceTo(t *testing.T) {
	set := models.NewTransactionSet("9988", []models.Transaction{
		buy(1, 1, 100, 10),
		buy(2, 3, 100, 20),
		sell(3, 5, 50, 25),
	})
	r := newReplayer(set, SellAllow)

	require.NoError(t, r.advanceTo(day(2)))
	assert.Equal(t, 100.0, r.position.TotalUnits)
	assert.Equal(t, 1, r.cursor)

	require.NoError(t, r.advanceTo(day(3)))
	assert.Equal(t, 200.0, r.position.TotalUnits)
	assert.Equal(t, 15.0, r.position.AverageCost())

	require.NoError(t, r.advanceTo(day(30)))
	assert.Equal(t, 150.0, r.position.TotalUnits)
	assert.Equal(t, 15.0, r.position.AverageCost())
	assert.Equal(t, 3, r.cursor)
}
