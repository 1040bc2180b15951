package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/mockbroker/src/mockbroker/mock"
	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
)

func TestHistoricalSeries(t *testing.T) {
	hours := models.DefaultMarketHours()
	start := nyTime(t, 8, 9, 30)
	bars := mock.NewMinuteBars(hours, "AAPL", start, []float64{10, 11, 12, 13, 14})
	series := models.NewHistoricalSeries("AAPL", "test", bars, time.Now())

	t.Run("Replay is periodic in the bar count", func(t *testing.T) {
		n := int64(series.Len())
		for m := int64(0); m < 2*n; m++ {
			first, _, err := series.BarAt(m)
			require.NoError(t, err)

			for k := int64(1); k <= 3; k++ {
				again, _, err := series.BarAt(m + k*n)
				require.NoError(t, err)
				assert.Same(t, first, again)
			}
		}
	})

	t.Run("Cycle counts completed wraps", func(t *testing.T) {
		bar, cycle, err := series.BarAt(12)
		require.NoError(t, err)
		assert.Equal(t, int64(2), cycle)
		assert.Equal(t, 12.0, bar.Close)
	})

	t.Run("Negative minutes wrap from the end", func(t *testing.T) {
		bar, cycle, err := series.BarAt(-1)
		require.NoError(t, err)
		assert.Equal(t, 14.0, bar.Close)
		assert.Equal(t, int64(-1), cycle)
	})

	t.Run("Empty series has no bars", func(t *testing.T) {
		empty := models.NewEmptyHistoricalSeries("AAPL", time.Now())

		assert.False(t, empty.IsUsable())
		_, _, err := empty.BarAt(0)
		assert.ErrorIs(t, err, models.ErrNoHistoricalData)
	})

	t.Run("Summary", func(t *testing.T) {
		summary, err := series.Summary()
		require.NoError(t, err)

		assert.Equal(t, 5, summary.BarCount)
		assert.InDelta(t, 12.0, summary.MeanClose, 1e-9)
		assert.Equal(t, 10.0, summary.MinClose)
		assert.Equal(t, 14.0, summary.MaxClose)
		assert.Greater(t, summary.StdDev, 0.0)
	})
}
