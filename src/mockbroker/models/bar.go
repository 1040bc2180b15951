package models

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
)

type BarInterval string

const (
	BarIntervalMinute BarInterval = "1m"
	BarIntervalHour   BarInterval = "1h"
	BarIntervalDay    BarInterval = "1d"
)

func (i BarInterval) Validate() error {
	switch i {
	case BarIntervalMinute, BarIntervalHour, BarIntervalDay:
		return nil
	}

	return fmt.Errorf("unknown bar interval: %q", i)
}

func (i BarInterval) Duration() time.Duration {
	switch i {
	case BarIntervalHour:
		return time.Hour
	case BarIntervalDay:
		return 24 * time.Hour
	default:
		return time.Minute
	}
}

// Bar is the canonical OHLCV shape used by the engine. Provider records are
// converted into a Bar once, at the source adapter.
type Bar struct {
	Symbol    string    `json:"symbol" csv:"symbol"`
	Timestamp time.Time `json:"ts" csv:"timestamp"`
	Open      float64   `json:"open" csv:"open"`
	High      float64   `json:"high" csv:"high"`
	Low       float64   `json:"low" csv:"low"`
	Close     float64   `json:"close" csv:"close"`
	Volume    float64   `json:"volume" csv:"volume"`
}

// HistoricalSeries is the immutable window of minute bars loaded for a
// symbol. An Empty series marks a symbol whose load was attempted but
// produced no data.
type HistoricalSeries struct {
	Symbol   string
	Bars     []*Bar
	Source   string
	LoadedAt time.Time
	Empty    bool
}

type SeriesSummary struct {
	BarCount  int     `json:"bar_count"`
	MeanClose float64 `json:"mean_close"`
	StdDev    float64 `json:"std_dev"`
	MinClose  float64 `json:"min_close"`
	MaxClose  float64 `json:"max_close"`
}

func NewHistoricalSeries(symbol, source string, bars []*Bar, loadedAt time.Time) *HistoricalSeries {
	return &HistoricalSeries{
		Symbol:   symbol,
		Bars:     bars,
		Source:   source,
		LoadedAt: loadedAt,
		Empty:    len(bars) == 0,
	}
}

func NewEmptyHistoricalSeries(symbol string, loadedAt time.Time) *HistoricalSeries {
	return &HistoricalSeries{
		Symbol:   symbol,
		LoadedAt: loadedAt,
		Empty:    true,
	}
}

func (s *HistoricalSeries) Len() int {
	if s == nil {
		return 0
	}

	return len(s.Bars)
}

func (s *HistoricalSeries) IsUsable() bool {
	return s != nil && !s.Empty && len(s.Bars) > 0
}

// BarAt returns the bar replayed at the given session minute. The window wraps
// around once exhausted, so the minute is taken modulo the bar count. The
// returned cycle number is the count of completed wraps.
func (s *HistoricalSeries) BarAt(minutesElapsed int64) (*Bar, int64, error) {
	n := int64(s.Len())
	if n == 0 {
		return nil, 0, ErrNoHistoricalData
	}

	index := minutesElapsed % n
	if index < 0 {
		index += n
	}

	cycle := minutesElapsed / n
	if minutesElapsed < 0 && minutesElapsed%n != 0 {
		cycle--
	}

	return s.Bars[index], cycle, nil
}

func (s *HistoricalSeries) Summary() (SeriesSummary, error) {
	if !s.IsUsable() {
		return SeriesSummary{}, ErrNoHistoricalData
	}

	closes := make(stats.Float64Data, 0, len(s.Bars))
	for _, bar := range s.Bars {
		closes = append(closes, bar.Close)
	}

	mean, err := stats.Mean(closes)
	if err != nil {
		return SeriesSummary{}, fmt.Errorf("Summary: mean: %w", err)
	}

	stdDev, err := stats.StandardDeviation(closes)
	if err != nil {
		return SeriesSummary{}, fmt.Errorf("Summary: standard deviation: %w", err)
	}

	minClose, err := stats.Min(closes)
	if err != nil {
		return SeriesSummary{}, fmt.Errorf("Summary: min: %w", err)
	}

	maxClose, err := stats.Max(closes)
	if err != nil {
		return SeriesSummary{}, fmt.Errorf("Summary: max: %w", err)
	}

	return SeriesSummary{
		BarCount:  len(s.Bars),
		MeanClose: mean,
		StdDev:    stdDev,
		MinClose:  minClose,
		MaxClose:  maxClose,
	}, nil
}
