package models

// PositionBook caches the latest projection of the account ledger. Every
// Reconstruct recomputes from scratch.
type PositionBook struct {
	state     *AccountState
	positions map[string]*Position
}

func NewPositionBook(state *AccountState) *PositionBook {
	return &PositionBook{
		state:     state,
		positions: make(map[string]*Position),
	}
}

func (b *PositionBook) Reconstruct() map[string]*Position {
	b.positions = b.state.Ledger.Reconstruct()
	return b.positions
}

func (b *PositionBook) Quantity(symbol string) int64 {
	if position, ok := b.positions[symbol]; ok {
		return position.Quantity
	}

	return 0
}

func (b *PositionBook) Get(symbol string) (Position, bool) {
	position, ok := b.positions[symbol]
	if !ok {
		return Position{}, false
	}

	return *position, true
}

func (b *PositionBook) List() []*Position {
	return SortedPositions(b.positions)
}
