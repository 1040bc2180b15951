package models

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

type MatchedFill struct {
	Order *Order
	Fill  FillRecord
}

// FillMatcher scans elapsed mock time for committed orders whose limit is
// crossed by the replayed close.
type FillMatcher struct {
	hours *MarketHours
	cache *HistoricalDataCache
}

func NewFillMatcher(hours *MarketHours, cache *HistoricalDataCache) *FillMatcher {
	return &FillMatcher{
		hours: hours,
		cache: cache,
	}
}

func isCrossed(action OrderAction, limit, price float64) bool {
	if action == OrderActionBuy {
		return price <= limit
	}

	return price >= limit
}

// scan walks the minute aligned instants in (order.MatchCursor, now] and
// returns the first in-session minute whose close crosses the limit. It also
// reports whether any in-session minute was visited.
func (m *FillMatcher) scan(order *Order, series *HistoricalSeries, windowStart, now time.Time) (fill *FillRecord, sawSession bool) {
	minute := int64(-1)

	for t := order.MatchCursor.Truncate(time.Minute).Add(time.Minute); !t.After(now); {
		if !m.hours.IsOpen(t) {
			t = m.hours.NextSessionOpen(t)
			minute = -1
			continue
		}

		sawSession = true
		if !series.IsUsable() {
			return nil, true
		}

		if minute < 0 {
			minute = m.hours.SessionMinutesBetween(windowStart, t)
		}

		bar, _, err := series.BarAt(minute)
		if err != nil {
			return nil, true
		}

		if isCrossed(order.Action, order.Price, bar.Close) {
			return &FillRecord{
				OrderID:        order.ID,
				Symbol:         order.Symbol,
				SignedQuantity: order.SignedQuantity(),
				Price:          bar.Close,
				Timestamp:      t,
			}, true
		}

		t = t.Add(time.Minute)
		minute++
	}

	return nil, sawSession
}

// Match advances every committed order to now. Each interval is scanned once:
// the cursor moves to now whether or not the order filled. Fills are priced at
// the matched bar's close.
func (m *FillMatcher) Match(ctx context.Context, state *AccountState, windowStart, now time.Time) []MatchedFill {
	var matched []MatchedFill

	committed := append([]*Order(nil), state.CommittedOrders...)
	for _, order := range committed {
		if !now.After(order.MatchCursor) {
			continue
		}

		series := m.cache.EnsureLoaded(ctx, order.Symbol, windowStart)
		fill, sawSession := m.scan(order, series, windowStart, now)
		order.MatchCursor = now

		if sawSession && order.Status == OrderStatusCommittedWaitMarketOpen {
			state.setStatus(order, OrderStatusCommittedWaitMatching)
		}

		if fill == nil {
			continue
		}

		index, _ := findOrder(state.CommittedOrders, order.ID)
		state.CommittedOrders = removeOrderAt(state.CommittedOrders, index)
		state.FilledOrders = append(state.FilledOrders, order)
		state.setStatus(order, OrderStatusFilled)

		filledAt := fill.Timestamp
		fillPrice := fill.Price
		order.FilledAt = &filledAt
		order.FillPrice = &fillPrice

		state.Ledger.Append(*fill)
		state.Balance += fill.CashDelta()

		log.WithFields(log.Fields{
			"order_id": order.ID,
			"symbol":   fill.Symbol,
			"quantity": fill.SignedQuantity,
			"price":    fill.Price,
			"limit":    order.Price,
		}).Infof("Match: filled at %s", fill.Timestamp.Format(time.RFC3339))

		matched = append(matched, MatchedFill{Order: order, Fill: *fill})
	}

	return matched
}
