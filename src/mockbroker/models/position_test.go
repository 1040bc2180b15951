package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
)

func TestReconstructPositions(t *testing.T) {
	fills := []models.FillRecord{
		{OrderID: "1", Symbol: "AAPL", SignedQuantity: 100, Price: 10},
		{OrderID: "2", Symbol: "AAPL", SignedQuantity: 100, Price: 20},
		{OrderID: "3", Symbol: "MSFT", SignedQuantity: 5, Price: 300},
		{OrderID: "4", Symbol: "MSFT", SignedQuantity: -5, Price: 310},
	}

	t.Run("Average cost is notional over net quantity", func(t *testing.T) {
		positions := models.ReconstructPositions(fills)

		require.Contains(t, positions, "AAPL")
		assert.Equal(t, int64(200), positions["AAPL"].Quantity)
		assert.Equal(t, 15.0, positions["AAPL"].AvgCost)
		assert.Equal(t, 3000.0, positions["AAPL"].Notional)
	})

	t.Run("Flat symbols are absent", func(t *testing.T) {
		positions := models.ReconstructPositions(fills)
		assert.NotContains(t, positions, "MSFT")
	})

	t.Run("Reconstruction is idempotent", func(t *testing.T) {
		ledger := models.NewFillLedger(fills)
		book := models.NewPositionBook(&models.AccountState{Ledger: ledger})

		first := book.Reconstruct()
		second := book.Reconstruct()

		assert.Equal(t, first, second)
		assert.Equal(t, models.SortedPositions(first), book.List())
	})

	t.Run("Ledger copies are isolated", func(t *testing.T) {
		ledger := models.NewFillLedger(fills)
		records := ledger.Records()
		records[0].Price = 999

		assert.Equal(t, 10.0, ledger.Records()[0].Price)
		assert.Equal(t, 4, ledger.Len())
	})

	t.Run("Cash delta has the opposite sign of the quantity", func(t *testing.T) {
		assert.Equal(t, -1000.0, fills[0].CashDelta())
		assert.Equal(t, 1550.0, fills[3].CashDelta())
		assert.Equal(t, models.OrderActionSell, fills[3].Action())
		assert.Equal(t, int64(5), fills[3].AbsQuantity())
	})
}
