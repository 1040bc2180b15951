package run

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
	"github.com/jiaming2012/mockbroker/src/mockbroker/services"
	"github.com/jiaming2012/mockbroker/src/utils"
)

type DownloadBarsArgs struct {
	Symbols []string
	Days    int
	End     time.Time
}

// DownloadBars copies minute bars from the first remote source that answers
// into the CSV directory, so later sessions can replay offline.
func DownloadBars(ctx context.Context, app *App, args DownloadBarsArgs) (map[string]int, error) {
	var remotes []models.HistoricalDataSource
	for _, source := range app.Sources {
		if _, isCSV := source.(*services.CSVBarSource); !isCSV {
			remotes = append(remotes, source)
		}
	}

	if len(remotes) == 0 {
		return nil, fmt.Errorf("DownloadBars: no remote source configured")
	}

	end := time.Now()
	if !args.End.IsZero() {
		end = utils.GetMinTime(args.End, end)
	}
	start := end.AddDate(0, 0, -args.Days)

	cache := models.NewHistoricalDataCache(app.Hours, args.Days, app.Config.Data.ProviderTimeout, remotes...)
	csv := services.NewCSVBarSource(app.Config.Data.CSVDir)

	written := make(map[string]int)
	for _, symbol := range args.Symbols {
		bars := cache.FetchRange(ctx, symbol, start, end, models.BarIntervalMinute)
		if len(bars) == 0 {
			log.Warnf("DownloadBars: no bars for %s", symbol)
			continue
		}

		if err := csv.WriteBars(symbol, bars); err != nil {
			return written, fmt.Errorf("DownloadBars: %s: %w", symbol, err)
		}

		written[symbol] = len(bars)
	}

	return written, nil
}
