package models

import "fmt"

type RejectReason string

const (
	RejectReasonNone                  RejectReason = ""
	RejectReasonInvalidOrder          RejectReason = "INVALID_ORDER"
	RejectReasonInvalidPrice          RejectReason = "INVALID_PRICE"
	RejectReasonInvalidQuantity       RejectReason = "INVALID_QUANTITY"
	RejectReasonDailyCapExceeded      RejectReason = "DAILY_CAP_EXCEEDED"
	RejectReasonInsufficientBalance   RejectReason = "INSUFFICIENT_BALANCE"
	RejectReasonInsufficientInventory RejectReason = "INSUFFICIENT_INVENTORY"
	RejectReasonNotFound              RejectReason = "NOT_FOUND"
	RejectReasonAlreadyFilled         RejectReason = "ALREADY_FILLED"
	RejectReasonAlreadyCancelled      RejectReason = "ALREADY_CANCELLED"
)

var rejectReasonErrors = map[RejectReason]error{
	RejectReasonInvalidOrder:          ErrInvalidOrder,
	RejectReasonInvalidPrice:          ErrInvalidPrice,
	RejectReasonInvalidQuantity:       ErrInvalidQuantity,
	RejectReasonDailyCapExceeded:      ErrDailyCapExceeded,
	RejectReasonInsufficientBalance:   ErrInsufficientBalance,
	RejectReasonInsufficientInventory: ErrInsufficientInventory,
	RejectReasonNotFound:              ErrOrderNotFound,
	RejectReasonAlreadyFilled:         ErrOrderAlreadyFilled,
	RejectReasonAlreadyCancelled:      ErrOrderAlreadyCancelled,
}

// OrderResult is what every lifecycle operation returns. Business failures
// are a REJECTED result, never an error.
type OrderResult struct {
	Order   *Order       `json:"order,omitempty"`
	Status  OrderStatus  `json:"status"`
	Reason  RejectReason `json:"reason,omitempty"`
	Message string       `json:"message,omitempty"`
}

func (r *OrderResult) IsRejected() bool {
	return r.Status == OrderStatusRejected
}

// Err converts a rejection into a wrapped sentinel so callers can use
// errors.Is. Accepted results return nil.
func (r *OrderResult) Err() error {
	if !r.IsRejected() {
		return nil
	}

	sentinel, ok := rejectReasonErrors[r.Reason]
	if !ok {
		return fmt.Errorf("order rejected: %s", r.Message)
	}

	return fmt.Errorf("%w: %s", sentinel, r.Message)
}

// detached copies the result and its order so callers never hold engine state.
func (r *OrderResult) detached() *OrderResult {
	c := *r
	c.Order = r.Order.Clone()
	return &c
}

func accepted(order *Order) *OrderResult {
	return &OrderResult{
		Order:  order,
		Status: order.Status,
	}
}

func rejected(order *Order, reason RejectReason, format string, args ...interface{}) *OrderResult {
	return &OrderResult{
		Order:   order,
		Status:  OrderStatusRejected,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}
