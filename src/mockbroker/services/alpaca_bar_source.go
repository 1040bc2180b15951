package services

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
)

// AlpacaBarSource stands in for the connected upstream account: it serves
// bars through the account's own market-data API.
type AlpacaBarSource struct {
	client *marketdata.Client
	feed   marketdata.Feed
}

func (s *AlpacaBarSource) Name() string {
	return "alpaca"
}

func alpacaTimeFrame(interval models.BarInterval) (marketdata.TimeFrame, error) {
	switch interval {
	case models.BarIntervalMinute:
		return marketdata.OneMin, nil
	case models.BarIntervalHour:
		return marketdata.OneHour, nil
	case models.BarIntervalDay:
		return marketdata.OneDay, nil
	}

	return marketdata.TimeFrame{}, fmt.Errorf("alpacaTimeFrame: unsupported interval %q", interval)
}

// FetchBars does not take ctx through the SDK, which has no context aware
// bar call; cancellation is checked before the request.
func (s *AlpacaBarSource) FetchBars(ctx context.Context, symbol string, start, end time.Time, interval models.BarInterval) ([]*models.Bar, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	timeFrame, err := alpacaTimeFrame(interval)
	if err != nil {
		return nil, err
	}

	alpacaBars, err := s.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: timeFrame,
		Start:     start,
		End:       end,
		Feed:      s.feed,
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars: %w", err)
	}

	bars := make([]*models.Bar, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		bars = append(bars, &models.Bar{
			Symbol:    symbol,
			Timestamp: ab.Timestamp,
			Open:      ab.Open,
			High:      ab.High,
			Low:       ab.Low,
			Close:     ab.Close,
			Volume:    float64(ab.Volume),
		})
	}

	return bars, nil
}

func NewAlpacaBarSource(apiKey, apiSecret, dataURL, feed string) *AlpacaBarSource {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	if feed == "" {
		feed = marketdata.IEX
	}

	return &AlpacaBarSource{
		client: marketdata.NewClient(opts),
		feed:   feed,
	}
}
