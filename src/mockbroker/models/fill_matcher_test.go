package models_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/mockbroker/src/mockbroker/mock"
	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
)

func newMatcher(t *testing.T, closes []float64) (*models.FillMatcher, time.Time) {
	hours := models.DefaultMarketHours()
	windowStart := nyTime(t, 8, 9, 30)

	source := mock.NewHistoricalSource("feed")
	source.SetBars("AAPL", mock.NewMinuteBars(hours, "AAPL", windowStart, closes))
	cache := models.NewHistoricalDataCache(hours, 5, time.Second, source)

	return models.NewFillMatcher(hours, cache), windowStart
}

func TestFillMatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("Buy fills at the matched close, not the limit", func(t *testing.T) {
		matcher, windowStart := newMatcher(t, []float64{50.5, 50.2, 49.0, 51.0})
		f := newLifecycleFixture(10000, 1000000)

		order := placeAndCommit(t, f.lifecycle, buy("AAPL", 50, 100), windowStart)
		require.Equal(t, models.OrderStatusCommittedWaitMatching, order.Status)

		matched := matcher.Match(ctx, f.state, windowStart, nyTime(t, 8, 9, 33))
		require.Len(t, matched, 1)

		fill := matched[0].Fill
		assert.Equal(t, 49.0, fill.Price)
		assert.Equal(t, int64(100), fill.SignedQuantity)
		assert.True(t, nyTime(t, 8, 9, 32).Equal(fill.Timestamp))

		assert.Equal(t, 5100.0, f.state.Balance)
		assert.Equal(t, models.OrderStatusFilled, order.Status)
		assert.Equal(t, 49.0, *order.FillPrice)
		assert.Empty(t, f.state.CommittedOrders)
		assert.Len(t, f.state.FilledOrders, 1)

		positions := f.positions.Reconstruct()
		require.Contains(t, positions, "AAPL")
		assert.Equal(t, int64(100), positions["AAPL"].Quantity)
		assert.Equal(t, 49.0, positions["AAPL"].AvgCost)
	})

	t.Run("Sell fills at the first close at or above the limit", func(t *testing.T) {
		matcher, windowStart := newMatcher(t, []float64{10, 11, 12, 13})
		f := newLifecycleFixture(0, 1000000, models.FillRecord{OrderID: "seed", Symbol: "AAPL", SignedQuantity: 10, Price: 5})

		placeAndCommit(t, f.lifecycle, sell("AAPL", 11.5, 10), windowStart)

		matched := matcher.Match(ctx, f.state, windowStart, nyTime(t, 8, 9, 40))
		require.Len(t, matched, 1)
		assert.Equal(t, 12.0, matched[0].Fill.Price)
		assert.Equal(t, int64(-10), matched[0].Fill.SignedQuantity)
		assert.Equal(t, 120.0, f.state.Balance)

		assert.Empty(t, f.positions.Reconstruct())
	})

	t.Run("Each interval is scanned once", func(t *testing.T) {
		matcher, windowStart := newMatcher(t, []float64{60, 60, 60, 40})
		f := newLifecycleFixture(10000, 1000000)
		order := placeAndCommit(t, f.lifecycle, buy("AAPL", 50, 1), windowStart)

		assert.Empty(t, matcher.Match(ctx, f.state, windowStart, nyTime(t, 8, 9, 32)))
		assert.True(t, nyTime(t, 8, 9, 32).Equal(order.MatchCursor))

		// nothing new to scan
		assert.Empty(t, matcher.Match(ctx, f.state, windowStart, nyTime(t, 8, 9, 32)))
		assert.Empty(t, matcher.Match(ctx, f.state, windowStart, nyTime(t, 8, 9, 31)))
		assert.True(t, nyTime(t, 8, 9, 32).Equal(order.MatchCursor))

		matched := matcher.Match(ctx, f.state, windowStart, nyTime(t, 8, 9, 33))
		require.Len(t, matched, 1)
		assert.Equal(t, 40.0, matched[0].Fill.Price)
	})

	t.Run("Replayed prices wrap around the window", func(t *testing.T) {
		matcher, windowStart := newMatcher(t, []float64{40, 60, 60})
		f := newLifecycleFixture(10000, 1000000)
		placeAndCommit(t, f.lifecycle, buy("AAPL", 50, 1), windowStart)

		// minute 0 is the commit instant itself, so the first qualifying minute is 3
		matched := matcher.Match(ctx, f.state, windowStart, nyTime(t, 8, 9, 40))
		require.Len(t, matched, 1)
		assert.True(t, nyTime(t, 8, 9, 33).Equal(matched[0].Fill.Timestamp))
	})

	t.Run("Orders committed after hours wait for the next open", func(t *testing.T) {
		matcher, windowStart := newMatcher(t, []float64{60, 60, 40})
		f := newLifecycleFixture(10000, 1000000)

		order := placeAndCommit(t, f.lifecycle, buy("AAPL", 50, 1), nyTime(t, 8, 17, 0))
		require.Equal(t, models.OrderStatusCommittedWaitMarketOpen, order.Status)

		assert.Empty(t, matcher.Match(ctx, f.state, windowStart, nyTime(t, 8, 23, 0)))
		assert.Equal(t, models.OrderStatusCommittedWaitMarketOpen, order.Status)

		// Tuesday 09:30 is session minute 390, 390 mod 3 = 0 -> 60
		assert.Empty(t, matcher.Match(ctx, f.state, windowStart, nyTime(t, 9, 9, 31)))
		assert.Equal(t, models.OrderStatusCommittedWaitMatching, order.Status)

		matched := matcher.Match(ctx, f.state, windowStart, nyTime(t, 9, 9, 32))
		require.Len(t, matched, 1)
		assert.True(t, nyTime(t, 9, 9, 32).Equal(matched[0].Fill.Timestamp))
	})

	t.Run("Cancelled orders are skipped", func(t *testing.T) {
		matcher, windowStart := newMatcher(t, []float64{60, 40, 40})
		f := newLifecycleFixture(10000, 1000000)

		order := placeAndCommit(t, f.lifecycle, buy("AAPL", 50, 1), windowStart)
		require.False(t, f.lifecycle.CancelOrder(order.ID, windowStart).IsRejected())

		assert.Empty(t, matcher.Match(ctx, f.state, windowStart, nyTime(t, 8, 9, 40)))
		assert.Equal(t, models.OrderStatusCancelled, order.Status)
		assert.Equal(t, 10000.0, f.state.Balance)
		assert.Equal(t, 0, f.state.Ledger.Len())
	})

	t.Run("Without data nothing fills but the cursor still advances", func(t *testing.T) {
		matcher, windowStart := newMatcher(t, []float64{1})
		f := newLifecycleFixture(10000, 1000000)

		order := placeAndCommit(t, f.lifecycle, buy("MSFT", 50, 1), windowStart)

		assert.Empty(t, matcher.Match(ctx, f.state, windowStart, nyTime(t, 8, 10, 0)))
		assert.True(t, nyTime(t, 8, 10, 0).Equal(order.MatchCursor))
	})
}
