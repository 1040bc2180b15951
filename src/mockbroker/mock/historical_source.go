package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
)

// HistoricalSource serves fixed bars from memory. It records every call so
// tests can assert on how often the cache reached the provider.
type HistoricalSource struct {
	name  string
	bars  map[string][]*models.Bar
	err   error
	Calls int
}

func (s *HistoricalSource) Name() string {
	return s.name
}

func (s *HistoricalSource) FetchBars(ctx context.Context, symbol string, start, end time.Time, interval models.BarInterval) ([]*models.Bar, error) {
	s.Calls++

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.err != nil {
		return nil, s.err
	}

	bars, found := s.bars[symbol]
	if !found {
		return nil, fmt.Errorf("FetchBars: unknown symbol %s", symbol)
	}

	result := make([]*models.Bar, 0, len(bars))
	for _, bar := range bars {
		if bar.Timestamp.Before(start) || !bar.Timestamp.Before(end) {
			continue
		}
		result = append(result, bar)
	}

	return result, nil
}

func (s *HistoricalSource) SetBars(symbol string, bars []*models.Bar) {
	s.bars[symbol] = bars
}

func NewHistoricalSource(name string) *HistoricalSource {
	return &HistoricalSource{
		name: name,
		bars: make(map[string][]*models.Bar),
	}
}

// NewFailingHistoricalSource returns a source whose every fetch fails with err.
func NewFailingHistoricalSource(name string, err error) *HistoricalSource {
	source := NewHistoricalSource(name)
	source.err = err
	return source
}

// NewMinuteBars lays closes out one per session minute starting at start.
// Open, high and low are derived from the close so every bar is consistent.
func NewMinuteBars(hours *models.MarketHours, symbol string, start time.Time, closes []float64) []*models.Bar {
	bars := make([]*models.Bar, 0, len(closes))

	t := hours.NextSessionOpen(start)
	if hours.IsOpen(start) {
		t = start
	}

	for i, c := range closes {
		if !hours.IsOpen(t) {
			t = hours.NextSessionOpen(t)
		}

		bars = append(bars, &models.Bar{
			Symbol:    symbol,
			Timestamp: t,
			Open:      c,
			High:      c + 0.5,
			Low:       c - 0.5,
			Close:     c,
			Volume:    float64(100 * (i + 1)),
		})

		t = t.Add(time.Minute)
	}

	return bars
}
