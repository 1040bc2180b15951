package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
)

func TestVirtualClock(t *testing.T) {
	hours := models.DefaultMarketHours()

	t.Run("Initialize anchors at the session open lookback days earlier", func(t *testing.T) {
		wall := newFakeWallClock(nyTime(t, 18, 14, 0)) // Thursday
		clock := models.NewVirtualClock(hours, nil, wall.Now)

		require.NoError(t, clock.Initialize(wall.Now(), 3, 1))

		assert.True(t, nyTime(t, 15, 9, 30).Equal(clock.WindowStart()))
		assert.True(t, nyTime(t, 15, 9, 30).Equal(clock.CurrentMockTime()))
	})

	t.Run("Initialize rolls a weekend start back to Friday", func(t *testing.T) {
		wall := newFakeWallClock(nyTime(t, 15, 14, 0)) // Monday
		clock := models.NewVirtualClock(hours, nil, wall.Now)

		require.NoError(t, clock.Initialize(wall.Now(), 1, 1))

		assert.True(t, nyTime(t, 12, 9, 30).Equal(clock.WindowStart()))
	})

	t.Run("Mock time advances by elapsed real time times speed", func(t *testing.T) {
		wall := newFakeWallClock(nyTime(t, 18, 14, 0))
		clock := models.NewVirtualClock(hours, nil, wall.Now)
		require.NoError(t, clock.Initialize(wall.Now(), 3, 60))

		wall.Advance(time.Minute)

		reading := clock.Now()
		assert.True(t, nyTime(t, 15, 10, 30).Equal(reading.MockNow))
		assert.Equal(t, 60.0, reading.Speed)
		assert.Equal(t, reading.MockNow.Sub(reading.RealNow), reading.Offset)
	})

	t.Run("Speed changes never jump mock time", func(t *testing.T) {
		wall := newFakeWallClock(nyTime(t, 18, 14, 0))
		clock := models.NewVirtualClock(hours, nil, wall.Now)
		require.NoError(t, clock.Initialize(wall.Now(), 3, 10))

		wall.Advance(30 * time.Second)
		before := clock.CurrentMockTime()

		require.NoError(t, clock.SetSpeed(10))
		assert.True(t, before.Equal(clock.CurrentMockTime()))

		require.NoError(t, clock.SetSpeed(120))
		assert.True(t, before.Equal(clock.CurrentMockTime()))

		wall.Advance(time.Second)
		assert.Equal(t, 120*time.Second, clock.CurrentMockTime().Sub(before))
	})

	t.Run("Unsupported speeds are rejected and leave the clock untouched", func(t *testing.T) {
		wall := newFakeWallClock(nyTime(t, 18, 14, 0))
		clock := models.NewVirtualClock(hours, nil, wall.Now)
		require.NoError(t, clock.Initialize(wall.Now(), 3, 1))

		err := clock.SetSpeed(7)
		assert.ErrorIs(t, err, models.ErrUnsupportedPlaybackSpeed)
		assert.Equal(t, 1.0, clock.Speed())

		err = clock.Initialize(wall.Now(), 3, 0.5)
		assert.ErrorIs(t, err, models.ErrUnsupportedPlaybackSpeed)
	})

	t.Run("Reading an uninitialized clock panics", func(t *testing.T) {
		clock := models.NewVirtualClock(hours, nil, nil)

		assert.False(t, clock.IsInitialized())
		assert.Panics(t, func() { clock.CurrentMockTime() })
	})
}
