package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/mockbroker/src/utils"
)

// OrderLifecycle owns the PLACED -> COMMITTED -> {FILLED | CANCELLED}
// transitions that callers can trigger. Fills are driven by FillMatcher.
type OrderLifecycle struct {
	state     *AccountState
	positions *PositionBook
	orderIDs  *OrderIdentifierMap
	hours     *MarketHours
	dailyCap  float64
	newID     func() string
}

func NewOrderLifecycle(state *AccountState, positions *PositionBook, orderIDs *OrderIdentifierMap, hours *MarketHours, dailyCap float64) *OrderLifecycle {
	return &OrderLifecycle{
		state:     state,
		positions: positions,
		orderIDs:  orderIDs,
		hours:     hours,
		dailyCap:  dailyCap,
		newID:     uuid.NewString,
	}
}

// committedNotionalOn sums the notional of committed and filled orders created
// on the given market day.
func (l *OrderLifecycle) committedNotionalOn(dateKey string) float64 {
	total := 0.0
	for _, orders := range [][]*Order{l.state.CommittedOrders, l.state.FilledOrders} {
		for _, order := range orders {
			if l.hours.DateKey(order.CreatedAt) == dateKey {
				total += order.Notional()
			}
		}
	}

	return total
}

// openSellQuantity sums placed and committed sells for symbol.
func (l *OrderLifecycle) openSellQuantity(symbol string) int64 {
	var total int64
	for _, orders := range [][]*Order{l.state.PlacedOrders, l.state.CommittedOrders} {
		for _, order := range orders {
			if order.Symbol == symbol && order.Action == OrderActionSell {
				total += order.Quantity
			}
		}
	}

	return total
}

func (l *OrderLifecycle) validate(req OrderRequest, mockNow time.Time) *OrderResult {
	if strings.TrimSpace(req.Symbol) == "" {
		return rejected(nil, RejectReasonInvalidOrder, "symbol is required")
	}

	if err := req.Action.Validate(); err != nil {
		return rejected(nil, RejectReasonInvalidOrder, "%v", err)
	}

	if !(req.Price > 0) {
		return rejected(nil, RejectReasonInvalidPrice, "price must be greater than 0, got %v", req.Price)
	}

	if req.Quantity <= 0 {
		return rejected(nil, RejectReasonInvalidQuantity, "quantity must be greater than 0, got %d", req.Quantity)
	}

	notional := req.Price * float64(req.Quantity)
	dateKey := l.hours.DateKey(mockNow)
	if used := l.committedNotionalOn(dateKey); used+notional > l.dailyCap {
		return rejected(nil, RejectReasonDailyCapExceeded, "notional %.2f on %s would exceed daily cap %.2f (already %.2f)", notional, dateKey, l.dailyCap, used)
	}

	if req.Action == OrderActionBuy && notional > l.state.Balance {
		return rejected(nil, RejectReasonInsufficientBalance, "notional %.2f exceeds balance %.2f", notional, l.state.Balance)
	}

	// open sells already claim part of the position
	if req.Action == OrderActionSell {
		held := l.positions.Quantity(req.Symbol)
		reserved := l.openSellQuantity(req.Symbol)
		if held-reserved < req.Quantity {
			return rejected(nil, RejectReasonInsufficientInventory, "sell %d %s but position is %d with %d in open sells", req.Quantity, req.Symbol, held, reserved)
		}
	}

	return nil
}

// PlaceOrder runs the admission rules in order; the first failure wins.
func (l *OrderLifecycle) PlaceOrder(req OrderRequest, mockNow time.Time) *OrderResult {
	if req.LotType != "" {
		if err := req.LotType.Validate(); err != nil {
			return rejected(nil, RejectReasonInvalidOrder, "%v", err)
		}
	}

	if result := l.validate(req, mockNow); result != nil {
		log.WithFields(log.Fields{
			"symbol": req.Symbol,
			"reason": result.Reason,
		}).Infof("PlaceOrder: rejected: %s", result.Message)
		return result
	}

	order := NewOrder(l.newID(), req, mockNow)
	l.state.PlacedOrders = append(l.state.PlacedOrders, order)
	l.state.setStatus(order, OrderStatusPlaced)
	l.orderIDs.Bind(req.ClientOrderID, order.ID)

	return accepted(order)
}

// CommitOrder releases a PLACED order to matching. The order waits for the
// open when the session is closed at mockNow.
func (l *OrderLifecycle) CommitOrder(id string, mockNow time.Time) *OrderResult {
	id = l.orderIDs.Resolve(id)

	index, order := findOrder(l.state.PlacedOrders, id)
	if order == nil {
		return rejected(nil, RejectReasonNotFound, "no placed order with id %s", id)
	}

	l.state.PlacedOrders = removeOrderAt(l.state.PlacedOrders, index)
	l.state.CommittedOrders = append(l.state.CommittedOrders, order)

	status := OrderStatusCommittedWaitMarketOpen
	if l.hours.IsOpen(mockNow) {
		status = OrderStatusCommittedWaitMatching
	}
	l.state.setStatus(order, status)

	committedAt := mockNow
	order.CommittedAt = &committedAt
	order.MatchCursor = utils.GetMaxTime(order.MatchCursor, mockNow)

	return accepted(order)
}

// CancelOrder never mutates state when it rejects, so repeating it is safe.
func (l *OrderLifecycle) CancelOrder(id string, mockNow time.Time) *OrderResult {
	id = l.orderIDs.Resolve(id)

	if _, order := findOrder(l.state.FilledOrders, id); order != nil {
		return rejected(order, RejectReasonAlreadyFilled, "order %s is already filled", id)
	}

	if _, order := findOrder(l.state.CancelledOrders, id); order != nil {
		return rejected(order, RejectReasonAlreadyCancelled, "order %s is already cancelled", id)
	}

	var order *Order
	if index, o := findOrder(l.state.PlacedOrders, id); o != nil {
		l.state.PlacedOrders = removeOrderAt(l.state.PlacedOrders, index)
		order = o
	} else if index, o := findOrder(l.state.CommittedOrders, id); o != nil {
		l.state.CommittedOrders = removeOrderAt(l.state.CommittedOrders, index)
		order = o
	}

	if order == nil {
		return rejected(nil, RejectReasonNotFound, "no open order with id %s", id)
	}

	l.state.CancelledOrders = append(l.state.CancelledOrders, order)
	l.state.setStatus(order, OrderStatusCancelled)

	cancelledAt := mockNow
	order.CancelledAt = &cancelledAt

	return accepted(order)
}
