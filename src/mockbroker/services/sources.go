package services

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/mockbroker/src/mockbroker/config"
	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
)

// NewHistoricalSources builds the configured source chain. Sources missing
// credentials are skipped with a warning so the cache falls through to the
// next one, and finally to synthetic snapshots.
func NewHistoricalSources(cfg config.Data) ([]models.HistoricalDataSource, error) {
	var sources []models.HistoricalDataSource

	for _, kind := range cfg.Sources {
		switch kind {
		case config.DataSourceAlpaca:
			if cfg.Alpaca.APIKey == "" || cfg.Alpaca.APISecret == "" {
				log.Warn("NewHistoricalSources: $ALPACA_API_KEY or $ALPACA_API_SECRET not set, skipping alpaca")
				continue
			}
			sources = append(sources, NewAlpacaBarSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL, cfg.Alpaca.Feed))

		case config.DataSourcePolygon:
			if cfg.PolygonAPIKey == "" {
				log.Warn("NewHistoricalSources: $POLYGON_API_KEY not set, skipping polygon")
				continue
			}
			sources = append(sources, NewPolygonBarSource(cfg.PolygonAPIKey))

		case config.DataSourceCSV:
			sources = append(sources, NewCSVBarSource(cfg.CSVDir))

		default:
			return nil, fmt.Errorf("NewHistoricalSources: unknown source %q", kind)
		}
	}

	if len(sources) == 0 {
		log.Warn("NewHistoricalSources: no historical source available, snapshots will be synthetic")
	}

	return sources, nil
}
