package models

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

type PersistedFill struct {
	OrderID  string      `json:"order_id"`
	Symbol   string      `json:"symbol"`
	Action   OrderAction `json:"action"`
	Quantity int64       `json:"quantity"`
	Price    float64     `json:"price"`
	Time     time.Time   `json:"time"`
}

// PersistedState is the document written at session boundaries.
type PersistedState struct {
	AccountID string          `json:"account_id,omitempty"`
	Balance   float64         `json:"balance"`
	Fills     []PersistedFill `json:"fills"`
	Orders    []*Order        `json:"orders"`
	SavedAt   time.Time       `json:"saved_at"`
}

func NewPersistedState(accountID string, state *AccountState, savedAt time.Time) *PersistedState {
	records := state.Ledger.Records()
	fills := make([]PersistedFill, 0, len(records))
	for _, record := range records {
		fills = append(fills, PersistedFill{
			OrderID:  record.OrderID,
			Symbol:   record.Symbol,
			Action:   record.Action(),
			Quantity: record.AbsQuantity(),
			Price:    record.Price,
			Time:     record.Timestamp,
		})
	}

	return &PersistedState{
		AccountID: accountID,
		Balance:   state.Balance,
		Fills:     fills,
		Orders:    state.AllOrders(),
		SavedAt:   savedAt,
	}
}

// ToAccountState rebuilds the in-memory state. Orders with an unknown status
// are dropped with a warning rather than failing the whole load.
func (p *PersistedState) ToAccountState() (*AccountState, error) {
	state := NewAccountState(p.Balance)

	records := make([]FillRecord, 0, len(p.Fills))
	for i, fill := range p.Fills {
		action, err := ParseOrderAction(string(fill.Action))
		if err != nil {
			return nil, fmt.Errorf("ToAccountState: fill %d: %w", i, err)
		}

		records = append(records, FillRecord{
			OrderID:        fill.OrderID,
			Symbol:         fill.Symbol,
			SignedQuantity: action.Sign() * fill.Quantity,
			Price:          fill.Price,
			Timestamp:      fill.Time,
		})
	}
	state.Ledger = NewFillLedger(records)

	for _, order := range p.Orders {
		if order == nil {
			continue
		}

		if err := order.Status.Validate(); err != nil {
			log.Warnf("ToAccountState: skipping order %s: %v", order.ID, err)
			continue
		}

		if order.LotType == "" {
			order.LotType = LotTypeCommon
		}

		switch {
		case order.Status == OrderStatusPlaced:
			state.PlacedOrders = append(state.PlacedOrders, order)
		case order.Status.IsCommitted():
			state.CommittedOrders = append(state.CommittedOrders, order)
		case order.Status == OrderStatusFilled || order.Status == OrderStatusPartial:
			state.FilledOrders = append(state.FilledOrders, order)
		case order.Status == OrderStatusCancelled:
			state.CancelledOrders = append(state.CancelledOrders, order)
		default:
			log.Warnf("ToAccountState: skipping order %s with status %s", order.ID, order.Status)
			continue
		}

		state.StatusByID[order.ID] = order.Status
	}

	return state, nil
}
