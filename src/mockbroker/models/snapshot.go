package models

import "time"

type SnapshotSource string

const (
	SnapshotSourceReplay    SnapshotSource = "replay"
	SnapshotSourceSynthetic SnapshotSource = "synthetic"
)

// Snapshot is the daily aggregate state of a symbol at the current mock time.
// Volume is the latest replayed bar's own volume; TotalVolume is the day sum.
type Snapshot struct {
	Symbol         string         `json:"code"`
	Timestamp      time.Time      `json:"ts"`
	Open           float64        `json:"open"`
	High           float64        `json:"high"`
	Low            float64        `json:"low"`
	Close          float64        `json:"close"`
	Volume         float64        `json:"volume"`
	TotalVolume    float64        `json:"total_volume"`
	ReferencePrice float64        `json:"reference_price"`
	ChangePrice    float64        `json:"change_price"`
	ChangeRate     float64        `json:"change_rate"`
	Source         SnapshotSource `json:"source"`
	ReplayCycle    int64          `json:"replay_cycle"`
}
