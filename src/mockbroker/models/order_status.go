package models

import "fmt"

type OrderStatus string

const (
	OrderStatusPlaced                  OrderStatus = "PLACED"
	OrderStatusCommittedWaitMarketOpen OrderStatus = "COMMITTED_WAIT_MARKET_OPEN"
	OrderStatusCommittedWaitMatching   OrderStatus = "COMMITTED_WAIT_MATCHING"
	OrderStatusFilled                  OrderStatus = "FILLED"
	OrderStatusPartial                 OrderStatus = "PARTIAL"
	OrderStatusCancelled               OrderStatus = "CANCELLED"
	OrderStatusRejected                OrderStatus = "REJECTED"
)

func (s OrderStatus) Validate() error {
	switch s {
	case OrderStatusPlaced, OrderStatusCommittedWaitMarketOpen, OrderStatusCommittedWaitMatching,
		OrderStatusFilled, OrderStatusPartial, OrderStatusCancelled, OrderStatusRejected:
		return nil
	}

	return fmt.Errorf("unknown order status: %q", s)
}

func (s OrderStatus) IsCommitted() bool {
	return s == OrderStatusCommittedWaitMarketOpen || s == OrderStatusCommittedWaitMatching
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFilled || s == OrderStatusCancelled || s == OrderStatusRejected
}
