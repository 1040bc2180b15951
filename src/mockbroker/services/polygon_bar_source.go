package services

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	polygonmodels "github.com/polygon-io/client-go/rest/models"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
)

// PolygonBarSource is the external market-data feed.
type PolygonBarSource struct {
	Client *polygon.Client
}

func (s *PolygonBarSource) Name() string {
	return "polygon"
}

func polygonTimespan(interval models.BarInterval) (polygonmodels.Timespan, error) {
	switch interval {
	case models.BarIntervalMinute:
		return polygonmodels.Minute, nil
	case models.BarIntervalHour:
		return polygonmodels.Hour, nil
	case models.BarIntervalDay:
		return polygonmodels.Day, nil
	}

	return "", fmt.Errorf("polygonTimespan: unsupported interval %q", interval)
}

func (s *PolygonBarSource) FetchBars(ctx context.Context, symbol string, start, end time.Time, interval models.BarInterval) ([]*models.Bar, error) {
	timespan, err := polygonTimespan(interval)
	if err != nil {
		return nil, err
	}

	log.Debugf("fetching polygon aggregates for %s from %s to %s", symbol, start, end)

	params := polygonmodels.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   timespan,
		From:       polygonmodels.Millis(start),
		To:         polygonmodels.Millis(end),
	}.WithOrder(polygonmodels.Asc).WithAdjusted(true)

	iter := s.Client.ListAggs(ctx, params)

	var bars []*models.Bar
	for iter.Next() {
		bars = append(bars, &models.Bar{
			Symbol:    symbol,
			Timestamp: time.Time(iter.Item().Timestamp),
			Open:      iter.Item().Open,
			High:      iter.Item().High,
			Low:       iter.Item().Low,
			Close:     iter.Item().Close,
			Volume:    iter.Item().Volume,
		})
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("FetchBars: polygon: %w", err)
	}

	return bars, nil
}

func NewPolygonBarSource(apiKey string) *PolygonBarSource {
	return &PolygonBarSource{
		Client: polygon.New(apiKey),
	}
}
