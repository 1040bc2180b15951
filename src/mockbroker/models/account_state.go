package models

// AccountState is owned by a single MockAccount. Orders move between the
// status partitioned lists and are never deleted.
type AccountState struct {
	Balance         float64
	Ledger          *FillLedger
	PlacedOrders    []*Order
	CommittedOrders []*Order
	FilledOrders    []*Order
	CancelledOrders []*Order
	StatusByID      map[string]OrderStatus
}

func NewAccountState(balance float64) *AccountState {
	return &AccountState{
		Balance:         balance,
		Ledger:          NewFillLedger(nil),
		PlacedOrders:    make([]*Order, 0),
		CommittedOrders: make([]*Order, 0),
		FilledOrders:    make([]*Order, 0),
		CancelledOrders: make([]*Order, 0),
		StatusByID:      make(map[string]OrderStatus),
	}
}

func findOrder(orders []*Order, id string) (int, *Order) {
	for i, order := range orders {
		if order.ID == id {
			return i, order
		}
	}

	return -1, nil
}

func removeOrderAt(orders []*Order, index int) []*Order {
	return append(orders[:index:index], orders[index+1:]...)
}

func (s *AccountState) setStatus(order *Order, status OrderStatus) {
	order.Status = status
	s.StatusByID[order.ID] = status
}

// AllOrders returns every stored order, grouped by list.
func (s *AccountState) AllOrders() []*Order {
	total := len(s.PlacedOrders) + len(s.CommittedOrders) + len(s.FilledOrders) + len(s.CancelledOrders)
	result := make([]*Order, 0, total)
	result = append(result, s.PlacedOrders...)
	result = append(result, s.CommittedOrders...)
	result = append(result, s.FilledOrders...)
	result = append(result, s.CancelledOrders...)

	return result
}
