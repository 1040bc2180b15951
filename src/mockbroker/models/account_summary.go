package models

type AccountSummary struct {
	AccountID     string       `json:"account_id"`
	Balance       float64      `json:"balance"`
	Equity        float64      `json:"equity"`
	Positions     []*Position  `json:"positions"`
	OpenOrders    int          `json:"open_orders"`
	FilledOrders  int          `json:"filled_orders"`
	Fills         int          `json:"fills"`
	Clock         ClockReading `json:"clock"`
	IsConnected   bool         `json:"is_connected"`
	PlaybackSpeed float64      `json:"playback_speed"`
}
