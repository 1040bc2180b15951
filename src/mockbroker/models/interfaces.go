package models

import (
	"context"
	"time"
)

// HistoricalDataSource is the narrow capability the cache needs from an
// upstream account or a market-data feed.
type HistoricalDataSource interface {
	Name() string
	FetchBars(ctx context.Context, symbol string, start, end time.Time, interval BarInterval) ([]*Bar, error)
}

type StateStore interface {
	Load(ctx context.Context) (*PersistedState, error)
	Save(ctx context.Context, state *PersistedState) error
}

type FillPublisher interface {
	PublishFill(event *OrderFilledEvent)
}

type OrderFilledEvent struct {
	AccountID string     `json:"account_id"`
	Order     *Order     `json:"order"`
	Fill      FillRecord `json:"fill"`
	Balance   float64    `json:"balance"`
}
