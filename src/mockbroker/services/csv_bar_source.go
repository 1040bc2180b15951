package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
)

type csvBarRecord struct {
	Timestamp time.Time `csv:"timestamp"`
	Open      float64   `csv:"open"`
	High      float64   `csv:"high"`
	Low       float64   `csv:"low"`
	Close     float64   `csv:"close"`
	Volume    float64   `csv:"volume"`
}

// CSVBarSource reads minute bars from <dir>/<SYMBOL>.csv. Timestamps use
// RFC 3339. Only the minute interval is stored on disk.
type CSVBarSource struct {
	dir string
}

func (s *CSVBarSource) Name() string {
	return "csv"
}

func (s *CSVBarSource) path(symbol string) string {
	return filepath.Join(s.dir, strings.ToUpper(symbol)+".csv")
}

func (s *CSVBarSource) FetchBars(ctx context.Context, symbol string, start, end time.Time, interval models.BarInterval) ([]*models.Bar, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if interval != models.BarIntervalMinute {
		return nil, fmt.Errorf("FetchBars: csv source only stores %s bars, got %s", models.BarIntervalMinute, interval)
	}

	f, err := os.Open(s.path(symbol))
	if err != nil {
		return nil, fmt.Errorf("FetchBars: failed to open file: %w", err)
	}
	defer f.Close()

	var records []*csvBarRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("FetchBars: failed to unmarshal csv: %w", err)
	}

	bars := make([]*models.Bar, 0, len(records))
	for _, r := range records {
		if r.Timestamp.Before(start) || !r.Timestamp.Before(end) {
			continue
		}

		bars = append(bars, &models.Bar{
			Symbol:    symbol,
			Timestamp: r.Timestamp,
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		})
	}

	return bars, nil
}

// WriteBars stores bars in the layout FetchBars reads, replacing any existing
// file for the symbol.
func (s *CSVBarSource) WriteBars(symbol string, bars []*models.Bar) error {
	records := make([]*csvBarRecord, 0, len(bars))
	for _, bar := range bars {
		records = append(records, &csvBarRecord{
			Timestamp: bar.Timestamp,
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    bar.Volume,
		})
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("WriteBars: failed to create directory: %w", err)
	}

	file, err := os.Create(s.path(symbol))
	if err != nil {
		return fmt.Errorf("WriteBars: failed to create file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&records, file); err != nil {
		return fmt.Errorf("WriteBars: failed to marshal csv: %w", err)
	}

	return nil
}

func NewCSVBarSource(dir string) *CSVBarSource {
	return &CSVBarSource{
		dir: dir,
	}
}
