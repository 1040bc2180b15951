package models

import (
	"context"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "mockbroker/models"

// HistoricalDataCache holds one replay window per symbol. A symbol is loaded
// at most once per session; failed loads are remembered as empty series and
// are not retried.
type HistoricalDataCache struct {
	hours      *MarketHours
	sources    []HistoricalDataSource
	series     map[string]*HistoricalSeries
	windowDays int
	timeout    time.Duration
	now        func() time.Time
}

// NewHistoricalDataCache takes sources in order of preference. Nil sources
// are ignored so an absent upstream account can be passed through as is.
func NewHistoricalDataCache(hours *MarketHours, windowDays int, timeout time.Duration, sources ...HistoricalDataSource) *HistoricalDataCache {
	var available []HistoricalDataSource
	for _, source := range sources {
		if source != nil {
			available = append(available, source)
		}
	}

	if windowDays <= 0 {
		windowDays = 5
	}

	return &HistoricalDataCache{
		hours:      hours,
		sources:    available,
		series:     make(map[string]*HistoricalSeries),
		windowDays: windowDays,
		timeout:    timeout,
		now:        time.Now,
	}
}

func (c *HistoricalDataCache) Sources() []HistoricalDataSource {
	return c.sources
}

func (c *HistoricalDataCache) Series(symbol string) (*HistoricalSeries, bool) {
	series, ok := c.series[symbol]
	return series, ok
}

// Reset forgets every loaded window, including empty markers.
func (c *HistoricalDataCache) Reset() {
	c.series = make(map[string]*HistoricalSeries)
}

func (c *HistoricalDataCache) fetch(ctx context.Context, source HistoricalDataSource, symbol string, start, end time.Time, interval BarInterval) ([]*Bar, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	bars, err := source.FetchBars(ctx, symbol, start, end, interval)
	if err != nil {
		return nil, NewProviderError(source.Name(), symbol, err)
	}

	return bars, nil
}

func (c *HistoricalDataCache) sessionBars(bars []*Bar) []*Bar {
	result := make([]*Bar, 0, len(bars))
	for _, bar := range bars {
		if bar != nil && c.hours.IsOpen(bar.Timestamp) {
			result = append(result, bar)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result
}

// EnsureLoaded returns the replay window for symbol, loading it on first use.
// It never returns an error: a failed load yields an empty series.
func (c *HistoricalDataCache) EnsureLoaded(ctx context.Context, symbol string, windowStart time.Time) *HistoricalSeries {
	if series, ok := c.series[symbol]; ok {
		return series
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "HistoricalDataCache.EnsureLoaded", trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	windowEnd := windowStart.AddDate(0, 0, c.windowDays)

	for _, source := range c.sources {
		bars, err := c.fetch(ctx, source, symbol, windowStart, windowEnd, BarIntervalMinute)
		if err != nil {
			span.RecordError(err)
			log.WithFields(log.Fields{
				"symbol": symbol,
				"source": source.Name(),
			}).Warnf("EnsureLoaded: %v", err)
			continue
		}

		bars = c.sessionBars(bars)
		if len(bars) == 0 {
			log.WithFields(log.Fields{
				"symbol": symbol,
				"source": source.Name(),
			}).Warnf("EnsureLoaded: no session bars between %s and %s", windowStart, windowEnd)
			continue
		}

		series := NewHistoricalSeries(symbol, source.Name(), bars, c.now())
		c.series[symbol] = series

		if summary, err := series.Summary(); err == nil {
			log.WithFields(log.Fields{
				"symbol":     symbol,
				"source":     source.Name(),
				"bars":       summary.BarCount,
				"mean_close": fmt.Sprintf("%.4f", summary.MeanClose),
				"std_dev":    fmt.Sprintf("%.4f", summary.StdDev),
			}).Info("EnsureLoaded: loaded replay window")
		}

		span.SetAttributes(attribute.Int("bars", len(bars)), attribute.String("source", source.Name()))
		return series
	}

	span.SetStatus(codes.Error, "no historical data")
	log.WithField("symbol", symbol).Errorf("EnsureLoaded: %v, storing empty series", ErrNoHistoricalData)

	series := NewEmptyHistoricalSeries(symbol, c.now())
	c.series[symbol] = series

	return series
}

// BarAt replays the loaded window circularly. The cycle number is diagnostic.
func (c *HistoricalDataCache) BarAt(symbol string, minutesElapsed int64) (*Bar, int64, error) {
	series, ok := c.series[symbol]
	if !ok || !series.IsUsable() {
		return nil, 0, fmt.Errorf("BarAt: %s: %w", symbol, ErrNoHistoricalData)
	}

	return series.BarAt(minutesElapsed)
}

// FetchRange queries the preferred source directly. Provider failures are
// logged and produce an empty result.
func (c *HistoricalDataCache) FetchRange(ctx context.Context, symbol string, start, end time.Time, interval BarInterval) []*Bar {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "HistoricalDataCache.FetchRange",
		trace.WithAttributes(attribute.String("symbol", symbol), attribute.String("interval", string(interval))))
	defer span.End()

	for _, source := range c.sources {
		bars, err := c.fetch(ctx, source, symbol, start, end, interval)
		if err != nil {
			span.RecordError(err)
			log.WithField("source", source.Name()).Warnf("FetchRange: %v", err)
			continue
		}

		sort.SliceStable(bars, func(i, j int) bool {
			return bars[i].Timestamp.Before(bars[j].Timestamp)
		})

		return bars
	}

	return make([]*Bar, 0)
}
