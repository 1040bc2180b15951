package models

import "sort"

// Position is a projection of the fill ledger and is never mutated directly.
type Position struct {
	Symbol   string  `json:"symbol"`
	Quantity int64   `json:"quantity"`
	AvgCost  float64 `json:"avg_cost"`
	Notional float64 `json:"notional"`
}

// ReconstructPositions folds every fill into per-symbol positions. It is a
// full recomputation; symbols that net to zero are dropped.
func ReconstructPositions(fills []FillRecord) map[string]*Position {
	positions := make(map[string]*Position)

	for _, fill := range fills {
		position, ok := positions[fill.Symbol]
		if !ok {
			position = &Position{Symbol: fill.Symbol}
			positions[fill.Symbol] = position
		}

		position.Quantity += fill.SignedQuantity
		position.Notional += float64(fill.SignedQuantity) * fill.Price
	}

	for symbol, position := range positions {
		if position.Quantity == 0 {
			delete(positions, symbol)
			continue
		}

		position.AvgCost = position.Notional / float64(position.Quantity)
	}

	return positions
}

func SortedPositions(positions map[string]*Position) []*Position {
	result := make([]*Position, 0, len(positions))
	for _, position := range positions {
		p := *position
		result = append(result, &p)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})

	return result
}
