package models

import (
	"time"
)

type OrderRequest struct {
	ClientOrderID string      `json:"client_order_id,omitempty"`
	Symbol        string      `json:"symbol"`
	Action        OrderAction `json:"action"`
	Price         float64     `json:"price"`
	Quantity      int64       `json:"quantity"`
	LotType       LotType     `json:"lot_type,omitempty"`
}

// Order is only mutated by the lifecycle operations and the fill matcher.
// MatchCursor is the last mock time already scanned for fills.
type Order struct {
	ID            string      `json:"id"`
	ClientOrderID string      `json:"client_order_id,omitempty"`
	Symbol        string      `json:"symbol"`
	Action        OrderAction `json:"action"`
	Price         float64     `json:"price"`
	Quantity      int64       `json:"quantity"`
	LotType       LotType     `json:"lot_type"`
	Status        OrderStatus `json:"status"`
	MatchCursor   time.Time   `json:"match_cursor"`
	CreatedAt     time.Time   `json:"created_at"`
	CommittedAt   *time.Time  `json:"committed_at,omitempty"`
	CancelledAt   *time.Time  `json:"cancelled_at,omitempty"`
	FilledAt      *time.Time  `json:"filled_at,omitempty"`
	FillPrice     *float64    `json:"fill_price,omitempty"`
}

// Clone returns a copy that shares no memory with o, safe to read after the
// account lock is released.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}

	c := *o
	if o.CommittedAt != nil {
		t := *o.CommittedAt
		c.CommittedAt = &t
	}
	if o.CancelledAt != nil {
		t := *o.CancelledAt
		c.CancelledAt = &t
	}
	if o.FilledAt != nil {
		t := *o.FilledAt
		c.FilledAt = &t
	}
	if o.FillPrice != nil {
		price := *o.FillPrice
		c.FillPrice = &price
	}

	return &c
}

func (o *Order) Notional() float64 {
	return o.Price * float64(o.Quantity)
}

func (o *Order) SignedQuantity() int64 {
	return o.Action.Sign() * o.Quantity
}

func NewOrder(id string, req OrderRequest, createdAt time.Time) *Order {
	lotType := req.LotType
	if lotType == "" {
		lotType = LotTypeCommon
	}

	return &Order{
		ID:            id,
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Action:        req.Action,
		Price:         req.Price,
		Quantity:      req.Quantity,
		LotType:       lotType,
		Status:        OrderStatusPlaced,
		MatchCursor:   createdAt,
		CreatedAt:     createdAt,
	}
}
