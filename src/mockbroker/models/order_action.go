package models

import (
	"fmt"
	"strings"
)

type OrderAction string

const (
	OrderActionBuy  OrderAction = "Buy"
	OrderActionSell OrderAction = "Sell"
)

// ParseOrderAction accepts the action in any letter case.
func ParseOrderAction(s string) (OrderAction, error) {
	switch strings.ToLower(s) {
	case "buy":
		return OrderActionBuy, nil
	case "sell":
		return OrderActionSell, nil
	}

	return "", fmt.Errorf("unknown order action: %q", s)
}

func (a OrderAction) Validate() error {
	if a == OrderActionBuy || a == OrderActionSell {
		return nil
	}

	return fmt.Errorf("unknown order action: %q", a)
}

// Sign is +1 for buys and -1 for sells.
func (a OrderAction) Sign() int64 {
	if a == OrderActionSell {
		return -1
	}

	return 1
}
