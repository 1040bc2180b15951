package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
)

type lifecycleFixture struct {
	state     *models.AccountState
	positions *models.PositionBook
	orderIDs  *models.OrderIdentifierMap
	lifecycle *models.OrderLifecycle
}

func newLifecycleFixture(balance, dailyCap float64, fills ...models.FillRecord) *lifecycleFixture {
	state := models.NewAccountState(balance)
	for _, fill := range fills {
		state.Ledger.Append(fill)
	}

	positions := models.NewPositionBook(state)
	positions.Reconstruct()

	orderIDs := models.NewOrderIdentifierMap()

	return &lifecycleFixture{
		state:     state,
		positions: positions,
		orderIDs:  orderIDs,
		lifecycle: models.NewOrderLifecycle(state, positions, orderIDs, models.DefaultMarketHours(), dailyCap),
	}
}

func buy(symbol string, price float64, quantity int64) models.OrderRequest {
	return models.OrderRequest{Symbol: symbol, Action: models.OrderActionBuy, Price: price, Quantity: quantity}
}

func sell(symbol string, price float64, quantity int64) models.OrderRequest {
	return models.OrderRequest{Symbol: symbol, Action: models.OrderActionSell, Price: price, Quantity: quantity}
}

func TestPlaceOrder(t *testing.T) {
	t.Run("Affordable buy within the cap is placed", func(t *testing.T) {
		f := newLifecycleFixture(10000, 1000000)
		now := nyTime(t, 8, 10, 0)

		result := f.lifecycle.PlaceOrder(buy("AAPL", 50, 100), now)

		require.False(t, result.IsRejected())
		assert.Equal(t, models.OrderStatusPlaced, result.Status)
		assert.NotEmpty(t, result.Order.ID)
		assert.True(t, now.Equal(result.Order.MatchCursor))
		assert.Equal(t, models.LotTypeCommon, result.Order.LotType)
		assert.Len(t, f.state.PlacedOrders, 1)
		assert.Equal(t, models.OrderStatusPlaced, f.state.StatusByID[result.Order.ID])
	})

	t.Run("Rules are checked in order", func(t *testing.T) {
		f := newLifecycleFixture(100, 1000)
		now := nyTime(t, 8, 10, 0)

		testCases := []struct {
			name   string
			req    models.OrderRequest
			reason models.RejectReason
		}{
			{"missing symbol", buy("", 1, 1), models.RejectReasonInvalidOrder},
			{"zero price before zero quantity", buy("AAPL", 0, 0), models.RejectReasonInvalidPrice},
			{"negative price", buy("AAPL", -1, 1), models.RejectReasonInvalidPrice},
			{"zero quantity", buy("AAPL", 1, 0), models.RejectReasonInvalidQuantity},
			{"cap before balance", buy("AAPL", 20, 100), models.RejectReasonDailyCapExceeded},
			{"balance", buy("AAPL", 2, 100), models.RejectReasonInsufficientBalance},
			{"inventory", sell("AAPL", 2, 1), models.RejectReasonInsufficientInventory},
		}

		for _, tc := range testCases {
			result := f.lifecycle.PlaceOrder(tc.req, now)
			assert.True(t, result.IsRejected(), tc.name)
			assert.Equal(t, tc.reason, result.Reason, tc.name)
			assert.NotEmpty(t, result.Message, tc.name)
		}

		assert.Empty(t, f.state.AllOrders())
	})

	t.Run("Rejections convert to sentinel errors", func(t *testing.T) {
		f := newLifecycleFixture(100, 1000)

		result := f.lifecycle.PlaceOrder(buy("AAPL", 2, 100), nyTime(t, 8, 10, 0))
		assert.ErrorIs(t, result.Err(), models.ErrInsufficientBalance)

		accepted := f.lifecycle.PlaceOrder(buy("AAPL", 1, 1), nyTime(t, 8, 10, 0))
		assert.NoError(t, accepted.Err())
	})

	t.Run("Sell beyond the position is rejected", func(t *testing.T) {
		f := newLifecycleFixture(10000, 1000000, models.FillRecord{OrderID: "seed", Symbol: "AAPL", SignedQuantity: 50, Price: 10})

		result := f.lifecycle.PlaceOrder(sell("AAPL", 10, 100), nyTime(t, 8, 10, 0))

		assert.True(t, result.IsRejected())
		assert.Equal(t, models.RejectReasonInsufficientInventory, result.Reason)

		result = f.lifecycle.PlaceOrder(sell("AAPL", 10, 50), nyTime(t, 8, 10, 0))
		assert.False(t, result.IsRejected())
	})

	t.Run("Daily cap counts committed orders on the same mock day", func(t *testing.T) {
		f := newLifecycleFixture(1000000, 10000)
		monday := nyTime(t, 8, 10, 0)

		placeAndCommit(t, f.lifecycle, buy("AAPL", 60, 100), monday)

		second := f.lifecycle.PlaceOrder(buy("MSFT", 50, 100), monday.Add(time.Hour))
		assert.True(t, second.IsRejected())
		assert.Equal(t, models.RejectReasonDailyCapExceeded, second.Reason)

		tuesday := f.lifecycle.PlaceOrder(buy("MSFT", 50, 100), nyTime(t, 9, 10, 0))
		assert.False(t, tuesday.IsRejected())
	})

	t.Run("Placed but uncommitted orders do not count toward the cap", func(t *testing.T) {
		f := newLifecycleFixture(1000000, 10000)
		monday := nyTime(t, 8, 10, 0)

		require.False(t, f.lifecycle.PlaceOrder(buy("AAPL", 60, 100), monday).IsRejected())
		assert.False(t, f.lifecycle.PlaceOrder(buy("MSFT", 50, 100), monday).IsRejected())
	})

	t.Run("Unknown lot type is rejected", func(t *testing.T) {
		f := newLifecycleFixture(10000, 1000000)
		req := buy("AAPL", 1, 1)
		req.LotType = "Board"

		result := f.lifecycle.PlaceOrder(req, nyTime(t, 8, 10, 0))
		assert.Equal(t, models.RejectReasonInvalidOrder, result.Reason)
	})
}

func TestCommitOrder(t *testing.T) {
	t.Run("Commit during the session waits for matching", func(t *testing.T) {
		f := newLifecycleFixture(10000, 1000000)
		placed := f.lifecycle.PlaceOrder(buy("AAPL", 50, 100), nyTime(t, 8, 10, 0))

		result := f.lifecycle.CommitOrder(placed.Order.ID, nyTime(t, 8, 10, 5))

		assert.Equal(t, models.OrderStatusCommittedWaitMatching, result.Status)
		assert.Empty(t, f.state.PlacedOrders)
		assert.Len(t, f.state.CommittedOrders, 1)
		assert.True(t, nyTime(t, 8, 10, 5).Equal(result.Order.MatchCursor))
	})

	t.Run("Commit outside the session waits for the open", func(t *testing.T) {
		f := newLifecycleFixture(10000, 1000000)
		placed := f.lifecycle.PlaceOrder(buy("AAPL", 50, 100), nyTime(t, 8, 17, 0))

		result := f.lifecycle.CommitOrder(placed.Order.ID, nyTime(t, 8, 17, 0))

		assert.Equal(t, models.OrderStatusCommittedWaitMarketOpen, result.Status)
	})

	t.Run("Unknown or already committed ids are not found", func(t *testing.T) {
		f := newLifecycleFixture(10000, 1000000)
		order := placeAndCommit(t, f.lifecycle, buy("AAPL", 50, 100), nyTime(t, 8, 10, 0))

		assert.Equal(t, models.RejectReasonNotFound, f.lifecycle.CommitOrder("nope", nyTime(t, 8, 10, 0)).Reason)
		assert.Equal(t, models.RejectReasonNotFound, f.lifecycle.CommitOrder(order.ID, nyTime(t, 8, 10, 0)).Reason)
	})

	t.Run("Client order ids resolve to internal ids", func(t *testing.T) {
		f := newLifecycleFixture(10000, 1000000)
		req := buy("AAPL", 50, 100)
		req.ClientOrderID = "my-order-1"

		placed := f.lifecycle.PlaceOrder(req, nyTime(t, 8, 10, 0))
		result := f.lifecycle.CommitOrder("my-order-1", nyTime(t, 8, 10, 0))

		require.False(t, result.IsRejected())
		assert.Equal(t, placed.Order.ID, result.Order.ID)
		clientID, found := f.orderIDs.ClientID(placed.Order.ID)
		assert.True(t, found)
		assert.Equal(t, "my-order-1", clientID)
	})
}

func TestCancelOrder(t *testing.T) {
	t.Run("Cancels placed and committed orders", func(t *testing.T) {
		f := newLifecycleFixture(10000, 1000000)
		placed := f.lifecycle.PlaceOrder(buy("AAPL", 10, 1), nyTime(t, 8, 10, 0))
		committed := placeAndCommit(t, f.lifecycle, buy("AAPL", 10, 1), nyTime(t, 8, 10, 0))

		first := f.lifecycle.CancelOrder(placed.Order.ID, nyTime(t, 8, 10, 1))
		second := f.lifecycle.CancelOrder(committed.ID, nyTime(t, 8, 10, 1))

		assert.Equal(t, models.OrderStatusCancelled, first.Status)
		assert.Equal(t, models.OrderStatusCancelled, second.Status)
		assert.Empty(t, f.state.PlacedOrders)
		assert.Empty(t, f.state.CommittedOrders)
		assert.Len(t, f.state.CancelledOrders, 2)
		assert.NotNil(t, second.Order.CancelledAt)
	})

	t.Run("A second cancel rejects without touching state", func(t *testing.T) {
		f := newLifecycleFixture(10000, 1000000)
		order := placeAndCommit(t, f.lifecycle, buy("AAPL", 10, 1), nyTime(t, 8, 10, 0))

		require.False(t, f.lifecycle.CancelOrder(order.ID, nyTime(t, 8, 10, 1)).IsRejected())
		cancelledAt := *order.CancelledAt

		for i := 0; i < 3; i++ {
			again := f.lifecycle.CancelOrder(order.ID, nyTime(t, 8, 11, i))
			assert.True(t, again.IsRejected())
			assert.Equal(t, models.RejectReasonAlreadyCancelled, again.Reason)
		}

		assert.Len(t, f.state.CancelledOrders, 1)
		assert.True(t, cancelledAt.Equal(*order.CancelledAt))
		assert.Equal(t, models.OrderStatusCancelled, f.state.StatusByID[order.ID])
	})

	t.Run("Filled orders cannot be cancelled", func(t *testing.T) {
		f := newLifecycleFixture(10000, 1000000)
		order := models.NewOrder("filled-1", buy("AAPL", 10, 1), nyTime(t, 8, 10, 0))
		order.Status = models.OrderStatusFilled
		f.state.FilledOrders = append(f.state.FilledOrders, order)

		result := f.lifecycle.CancelOrder("filled-1", nyTime(t, 8, 10, 1))

		assert.Equal(t, models.RejectReasonAlreadyFilled, result.Reason)
		assert.Len(t, f.state.FilledOrders, 1)
	})

	t.Run("Unknown ids are not found", func(t *testing.T) {
		f := newLifecycleFixture(10000, 1000000)

		result := f.lifecycle.CancelOrder("nope", nyTime(t, 8, 10, 0))
		assert.Equal(t, models.RejectReasonNotFound, result.Reason)
		assert.ErrorIs(t, result.Err(), models.ErrOrderNotFound)
	})
}

func TestOpenSellsReserveInventory(t *testing.T) {
	seed := models.FillRecord{OrderID: "seed", Symbol: "AAPL", SignedQuantity: 50, Price: 5}
	now := nyTime(t, 8, 10, 0)

	t.Run("A second sell cannot claim shares held by an open sell", func(t *testing.T) {
		f := newLifecycleFixture(10000, 1000000, seed)

		first := f.lifecycle.PlaceOrder(sell("AAPL", 10, 50), now)
		require.False(t, first.IsRejected(), first.Message)

		second := f.lifecycle.PlaceOrder(sell("AAPL", 10, 50), now)
		assert.True(t, second.IsRejected())
		assert.Equal(t, models.RejectReasonInsufficientInventory, second.Reason)

		require.False(t, f.lifecycle.CancelOrder(first.Order.ID, now).IsRejected())

		third := f.lifecycle.PlaceOrder(sell("AAPL", 10, 50), now)
		assert.False(t, third.IsRejected(), third.Message)
	})

	t.Run("Committed sells count and other symbols do not", func(t *testing.T) {
		f := newLifecycleFixture(10000, 1000000, seed, models.FillRecord{OrderID: "seed-2", Symbol: "MSFT", SignedQuantity: 5, Price: 5})

		placeAndCommit(t, f.lifecycle, sell("AAPL", 10, 30), now)

		result := f.lifecycle.PlaceOrder(sell("AAPL", 10, 21), now)
		assert.Equal(t, models.RejectReasonInsufficientInventory, result.Reason)

		result = f.lifecycle.PlaceOrder(sell("AAPL", 10, 20), now)
		assert.False(t, result.IsRejected(), result.Message)

		result = f.lifecycle.PlaceOrder(sell("MSFT", 10, 5), now)
		assert.False(t, result.IsRejected(), result.Message)
	})
}
