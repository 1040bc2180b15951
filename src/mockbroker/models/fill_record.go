package models

import "time"

// FillRecord is an immutable ledger entry. Quantity is signed: positive for
// buys, negative for sells.
type FillRecord struct {
	OrderID        string    `json:"order_id"`
	Symbol         string    `json:"symbol"`
	SignedQuantity int64     `json:"signed_quantity"`
	Price          float64   `json:"price"`
	Timestamp      time.Time `json:"timestamp"`
}

func (f FillRecord) Action() OrderAction {
	if f.SignedQuantity < 0 {
		return OrderActionSell
	}

	return OrderActionBuy
}

func (f FillRecord) AbsQuantity() int64 {
	if f.SignedQuantity < 0 {
		return -f.SignedQuantity
	}

	return f.SignedQuantity
}

// CashDelta is the balance change caused by the fill.
func (f FillRecord) CashDelta() float64 {
	return -float64(f.SignedQuantity) * f.Price
}
